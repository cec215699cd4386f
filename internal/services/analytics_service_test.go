package services

import (
	"context"
	"testing"
	"time"

	"leadrank/internal/caching"
	"leadrank/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLeadTemperature(t *testing.T) {
	assert.Equal(t, "hot", LeadTemperature(0.70))
	assert.Equal(t, "hot", LeadTemperature(0.95))
	assert.Equal(t, "warm", LeadTemperature(0.35))
	assert.Equal(t, "warm", LeadTemperature(0.69))
	assert.Equal(t, "cold", LeadTemperature(0.34))
	assert.Equal(t, "cold", LeadTemperature(0.02))
}

func TestBuildInsights(t *testing.T) {
	tenantID := uuid.New()
	day1 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)

	leads := []*models.Lead{
		withCreatedAt(withProbability(labeledLead(tenantID, 10, 1, false, models.OutcomeDenied), 0.15), day1),
		withCreatedAt(withProbability(labeledLead(tenantID, 300, 8, true, models.OutcomeConverted), 0.85), day1),
		withCreatedAt(withProbability(labeledLead(tenantID, 100, 3, false, models.OutcomeConverted), 0.55), day2),
		withCreatedAt(&models.Lead{ID: uuid.New(), TenantID: tenantID}, day2), // pending, no probability
	}

	insights := buildInsights(leads, 30)

	assert.Equal(t, 4, insights.TotalLeads)
	assert.Equal(t, 3, insights.LabeledLeads)
	assert.InDelta(t, 2.0/3.0, insights.ConversionRate, 1e-9)

	require.Len(t, insights.Bands, 5)
	assert.Equal(t, 1, insights.Bands[0].Count) // 0.15
	assert.Equal(t, 1, insights.Bands[2].Count) // 0.55
	assert.Equal(t, 1, insights.Bands[4].Count) // 0.85
	assert.Equal(t, 1, insights.Bands[4].Converted)

	require.Len(t, insights.Series, 2)
	assert.Equal(t, "2024-05-01", insights.Series[0].Date)
	assert.Equal(t, 2, insights.Series[0].Leads)
	assert.Equal(t, 1, insights.Series[0].Converted)
	assert.Equal(t, "2024-05-02", insights.Series[1].Date)
	assert.Equal(t, 2, insights.Series[1].Leads)
}

func TestBandIndexBoundaries(t *testing.T) {
	assert.Equal(t, 0, bandIndex(0.0))
	assert.Equal(t, 0, bandIndex(0.19))
	assert.Equal(t, 1, bandIndex(0.2))
	assert.Equal(t, 4, bandIndex(0.99))
	assert.Equal(t, 4, bandIndex(1.0))
}

func TestInsights_ServedFromCache(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	thresholdRepo := new(MockThresholdRepository)
	cacheSvc := new(MockCacheService)
	svc := NewAnalyticsService(leadRepo, thresholdRepo, cacheSvc, time.Minute)

	tenantID := uuid.New()
	cacheSvc.On("GetJSON", mock.Anything, caching.InsightsKey(tenantID, defaultInsightsDays), mock.Anything).
		Run(func(args mock.Arguments) {
			dest := args.Get(2).(*Insights)
			dest.Days = defaultInsightsDays
			dest.TotalLeads = 42
		}).Return(true, nil)

	insights, err := svc.Insights(context.Background(), tenantID, 0)
	require.NoError(t, err)
	assert.Equal(t, 42, insights.TotalLeads)
	leadRepo.AssertNotCalled(t, "ListSince", mock.Anything, mock.Anything, mock.Anything)
}

func TestInsights_ComputesAndCachesOnMiss(t *testing.T) {
	leadRepo := new(MockLeadRepository)
	thresholdRepo := new(MockThresholdRepository)
	cacheSvc := new(MockCacheService)
	svc := NewAnalyticsService(leadRepo, thresholdRepo, cacheSvc, time.Minute)

	tenantID := uuid.New()
	key := caching.InsightsKey(tenantID, 7)
	cacheSvc.On("GetJSON", mock.Anything, key, mock.Anything).Return(false, nil)
	leadRepo.On("ListSince", mock.Anything, tenantID, 7).Return([]*models.Lead{}, nil)
	cacheSvc.On("SetJSON", mock.Anything, key, mock.Anything, time.Minute).Return(nil)

	insights, err := svc.Insights(context.Background(), tenantID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, insights.Days)
	assert.Zero(t, insights.TotalLeads)
	cacheSvc.AssertExpectations(t)
}

func withCreatedAt(lead *models.Lead, at time.Time) *models.Lead {
	lead.CreatedAt = at
	return lead
}
