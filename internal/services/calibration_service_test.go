package services

import (
	"context"
	"testing"

	"leadrank/internal/ml"
	"leadrank/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func calibrationFixture() (*MockLeadRepository, *MockThresholdRepository, *MockCacheService, CalibrationService, uuid.UUID) {
	leadRepo := new(MockLeadRepository)
	thresholdRepo := new(MockThresholdRepository)
	cacheSvc := new(MockCacheService)
	svc := NewCalibrationService(leadRepo, thresholdRepo, cacheSvc)
	return leadRepo, thresholdRepo, cacheSvc, svc, uuid.New()
}

func withProbability(lead *models.Lead, p float64) *models.Lead {
	lead.Probability = &p
	return lead
}

func TestRecalibrate_IneligibleKeepsCurrentThreshold(t *testing.T) {
	leadRepo, thresholdRepo, _, svc, tenantID := calibrationFixture()

	leadRepo.On("ListLabeled", mock.Anything, tenantID, trainingRowCap).
		Return([]*models.Lead{
			labeledLead(tenantID, 100, 3, false, models.OutcomeConverted),
			labeledLead(tenantID, 10, 1, false, models.OutcomeDenied),
		}, nil)
	thresholdRepo.On("Get", mock.Anything, tenantID).Return(0.35, nil)

	result, err := svc.RecalibrateThreshold(context.Background(), tenantID)
	require.NoError(t, err)

	assert.False(t, result.CanTrain)
	assert.NotEmpty(t, result.Reason)
	assert.Equal(t, 2, result.LabeledCount)
	assert.Equal(t, 0.35, result.Threshold)
	thresholdRepo.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecalibrate_PersistsBestThreshold(t *testing.T) {
	leadRepo, thresholdRepo, cacheSvc, svc, tenantID := calibrationFixture()

	// Denied at 0.45, converted at 0.65: the grid's lowest perfect
	// separator is 0.50.
	labeled := []*models.Lead{
		withProbability(labeledLead(tenantID, 20, 1, false, models.OutcomeDenied), 0.45),
		withProbability(labeledLead(tenantID, 35, 2, false, models.OutcomeDenied), 0.45),
		withProbability(labeledLead(tenantID, 300, 8, true, models.OutcomeConverted), 0.65),
		withProbability(labeledLead(tenantID, 250, 6, true, models.OutcomeConverted), 0.65),
	}
	leadRepo.On("ListLabeled", mock.Anything, tenantID, trainingRowCap).Return(labeled, nil)
	thresholdRepo.On("Set", mock.Anything, tenantID, 0.50).Return(nil)
	cacheSvc.On("InvalidateTenant", mock.Anything, tenantID).Return(nil)

	result, err := svc.RecalibrateThreshold(context.Background(), tenantID)
	require.NoError(t, err)

	assert.True(t, result.CanTrain)
	assert.InDelta(t, 0.50, result.Threshold, 1e-9)
	assert.InDelta(t, 1.0, result.F1, 1e-9)
	assert.InDelta(t, 1.0, result.Precision, 1e-9)
	assert.InDelta(t, 1.0, result.Recall, 1e-9)
	thresholdRepo.AssertExpectations(t)
}

func TestRecalibrate_BackfillsMissingProbabilities(t *testing.T) {
	leadRepo, thresholdRepo, cacheSvc, svc, tenantID := calibrationFixture()

	missing := labeledLead(tenantID, 280, 7, true, models.OutcomeConverted)
	missing.Probability = nil
	firstRead := []*models.Lead{
		missing,
		withProbability(labeledLead(tenantID, 250, 6, true, models.OutcomeConverted), 0.8),
		withProbability(labeledLead(tenantID, 20, 1, false, models.OutcomeDenied), 0.2),
		withProbability(labeledLead(tenantID, 35, 2, false, models.OutcomeDenied), 0.25),
	}
	secondRead := []*models.Lead{
		withProbability(labeledLead(tenantID, 280, 7, true, models.OutcomeConverted), 0.85),
		withProbability(labeledLead(tenantID, 250, 6, true, models.OutcomeConverted), 0.8),
		withProbability(labeledLead(tenantID, 20, 1, false, models.OutcomeDenied), 0.2),
		withProbability(labeledLead(tenantID, 35, 2, false, models.OutcomeDenied), 0.25),
	}

	leadRepo.On("ListLabeled", mock.Anything, tenantID, trainingRowCap).Return(firstRead, nil).Once()
	leadRepo.On("UpdateProbabilities", mock.Anything, tenantID,
		mock.MatchedBy(func(ids []uuid.UUID) bool { return len(ids) == 1 && ids[0] == missing.ID }),
		mock.Anything, mock.Anything).Return(1, nil)
	leadRepo.On("ListLabeled", mock.Anything, tenantID, trainingRowCap).Return(secondRead, nil).Once()
	thresholdRepo.On("Set", mock.Anything, tenantID, mock.Anything).Return(nil)
	cacheSvc.On("InvalidateTenant", mock.Anything, tenantID).Return(nil)

	result, err := svc.RecalibrateThreshold(context.Background(), tenantID)
	require.NoError(t, err)
	assert.True(t, result.CanTrain)
	leadRepo.AssertExpectations(t)
}

func TestRecalcPending_Ineligible(t *testing.T) {
	leadRepo, _, _, svc, tenantID := calibrationFixture()

	leadRepo.On("ListLabeled", mock.Anything, tenantID, trainingRowCap).
		Return([]*models.Lead{}, nil)

	result, err := svc.RecalculatePending(context.Background(), tenantID, 0)
	require.NoError(t, err)

	assert.False(t, result.CanTrain)
	assert.NotEmpty(t, result.Reason)
	assert.Zero(t, result.Updated)
	leadRepo.AssertNotCalled(t, "ListPending", mock.Anything, mock.Anything, mock.Anything)
	leadRepo.AssertNotCalled(t, "UpdateProbabilities", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecalcPending_UpdatesBacklog(t *testing.T) {
	leadRepo, _, cacheSvc, svc, tenantID := calibrationFixture()

	pending := []*models.Lead{
		{ID: uuid.New(), TenantID: tenantID, TimeOnSite: 290, PagesVisited: 7, ClickedPrice: true},
		{ID: uuid.New(), TenantID: tenantID, TimeOnSite: 15, PagesVisited: 1},
		{ID: uuid.New(), TenantID: tenantID, TimeOnSite: 120, PagesVisited: 4},
	}

	leadRepo.On("ListLabeled", mock.Anything, tenantID, trainingRowCap).
		Return(eligibleLabeledSet(tenantID), nil)
	leadRepo.On("ListPending", mock.Anything, tenantID, defaultRecalcLimit).Return(pending, nil)

	var gotProbs []float64
	leadRepo.On("UpdateProbabilities", mock.Anything, tenantID, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			gotProbs = args.Get(3).([]float64)
		}).Return(3, nil)
	cacheSvc.On("InvalidateTenant", mock.Anything, tenantID).Return(nil)

	result, err := svc.RecalculatePending(context.Background(), tenantID, 0)
	require.NoError(t, err)

	assert.True(t, result.CanTrain)
	assert.Equal(t, 3, result.Updated)
	assert.Len(t, result.Sample, 3)
	require.NotNil(t, result.MinProb)
	require.NotNil(t, result.MaxProb)
	assert.LessOrEqual(t, *result.MinProb, *result.MaxProb)

	for _, p := range gotProbs {
		assert.Greater(t, p, 0.0)
		assert.Less(t, p, 1.0)
	}
}

func TestRecalcPending_LimitClamped(t *testing.T) {
	cases := []struct {
		requested int
		effective int
	}{
		{0, defaultRecalcLimit},
		{3, minRecalcLimit},
		{99999, maxRecalcLimit},
		{200, 200},
	}

	for _, tc := range cases {
		leadRepo, _, cacheSvc, svc, tenantID := calibrationFixture()

		leadRepo.On("ListLabeled", mock.Anything, tenantID, trainingRowCap).
			Return(eligibleLabeledSet(tenantID), nil)
		leadRepo.On("ListPending", mock.Anything, tenantID, tc.effective).
			Return([]*models.Lead{}, nil)
		leadRepo.On("UpdateProbabilities", mock.Anything, tenantID, mock.Anything, mock.Anything, mock.Anything).
			Return(0, nil)
		cacheSvc.On("InvalidateTenant", mock.Anything, tenantID).Return(nil)

		_, err := svc.RecalculatePending(context.Background(), tenantID, tc.requested)
		require.NoError(t, err)
		leadRepo.AssertCalled(t, "ListPending", mock.Anything, tenantID, tc.effective)
	}
}

func TestThreshold_DelegatesToRepo(t *testing.T) {
	_, thresholdRepo, _, svc, tenantID := calibrationFixture()

	thresholdRepo.On("GetRecord", mock.Anything, tenantID).
		Return(&models.TenantThreshold{TenantID: tenantID, Threshold: ml.DefaultThreshold}, nil)

	record, err := svc.Threshold(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, tenantID, record.TenantID)
	assert.Equal(t, ml.DefaultThreshold, record.Threshold)
	assert.True(t, record.UpdatedAt.IsZero())
}
