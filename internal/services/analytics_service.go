package services

import (
	"context"
	"log"
	"time"

	"leadrank/internal/caching"
	"leadrank/internal/models"
	"leadrank/internal/repositories"

	"github.com/google/uuid"
)

const (
	hotProbability  = 0.70
	warmProbability = 0.35

	defaultInsightsDays = 30
	maxInsightsDays     = 365
)

// LeadTemperature buckets a probability for display.
func LeadTemperature(probability float64) string {
	switch {
	case probability >= hotProbability:
		return "hot"
	case probability >= warmProbability:
		return "warm"
	default:
		return "cold"
	}
}

// Dashboard is the operator landing page payload.
type Dashboard struct {
	TotalLeads     int                        `json:"total_leads"`
	LabeledLeads   int                        `json:"labeled_leads"`
	PendingLeads   int                        `json:"pending_leads"`
	ConvertedLeads int                        `json:"converted_leads"`
	DeniedLeads    int                        `json:"denied_leads"`
	HotLeadsToday  int                        `json:"hot_leads_today"`
	TopOrigins     []repositories.OriginCount `json:"top_origins"`
	RecentLeads    []*models.Lead             `json:"recent_leads"`
	Threshold      float64                    `json:"threshold"`
}

// ProbabilityBand is one bucket of the insights histogram.
type ProbabilityBand struct {
	Label     string `json:"label"`
	Count     int    `json:"count"`
	Converted int    `json:"converted"`
}

// DailyPoint is one day of the insights time series.
type DailyPoint struct {
	Date      string `json:"date"`
	Leads     int    `json:"leads"`
	Converted int    `json:"converted"`
}

// Insights summarizes scoring quality over a trailing window.
type Insights struct {
	Days           int               `json:"days"`
	TotalLeads     int               `json:"total_leads"`
	LabeledLeads   int               `json:"labeled_leads"`
	ConversionRate float64           `json:"conversion_rate"`
	Bands          []ProbabilityBand `json:"bands"`
	Series         []DailyPoint      `json:"series"`
	GeneratedAt    time.Time         `json:"generated_at"`
}

type AnalyticsService interface {
	Dashboard(ctx context.Context, tenantID uuid.UUID) (*Dashboard, error)

	// Insights computes band and daily aggregates over the trailing
	// window, served from cache when fresh.
	Insights(ctx context.Context, tenantID uuid.UUID, days int) (*Insights, error)
}

type analyticsService struct {
	leadRepo      repositories.LeadRepository
	thresholdRepo repositories.ThresholdRepository
	cacheSvc      caching.CacheService
	cacheTTL      time.Duration
}

func NewAnalyticsService(leadRepo repositories.LeadRepository, thresholdRepo repositories.ThresholdRepository, cacheSvc caching.CacheService, cacheTTL time.Duration) AnalyticsService {
	return &analyticsService{
		leadRepo:      leadRepo,
		thresholdRepo: thresholdRepo,
		cacheSvc:      cacheSvc,
		cacheTTL:      cacheTTL,
	}
}

func (s *analyticsService) Dashboard(ctx context.Context, tenantID uuid.UUID) (*Dashboard, error) {
	total, labeled, pending, err := s.leadRepo.CountByState(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	recent, err := s.leadRepo.ListRecent(ctx, tenantID, 20, 0)
	if err != nil {
		return nil, err
	}

	origins, err := s.leadRepo.TopOrigins(ctx, tenantID, 30, 5)
	if err != nil {
		return nil, err
	}

	threshold, err := s.thresholdRepo.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	today, err := s.leadRepo.ListSince(ctx, tenantID, 1)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		TotalLeads:   total,
		LabeledLeads: labeled,
		PendingLeads: pending,
		TopOrigins:   origins,
		RecentLeads:  recent,
		Threshold:    threshold,
	}
	for _, lead := range today {
		if lead.Probability != nil && *lead.Probability >= hotProbability {
			dashboard.HotLeadsToday++
		} else if lead.Score != nil && *lead.Score >= 70 {
			dashboard.HotLeadsToday++
		}
	}

	// Converted/denied split comes from the full labeled set, not the
	// trailing window.
	labeledLeads, err := s.leadRepo.ListLabeled(ctx, tenantID, trainingRowCap)
	if err != nil {
		return nil, err
	}
	for _, lead := range labeledLeads {
		if lead.Converted() {
			dashboard.ConvertedLeads++
		} else {
			dashboard.DeniedLeads++
		}
	}

	return dashboard, nil
}

func (s *analyticsService) Insights(ctx context.Context, tenantID uuid.UUID, days int) (*Insights, error) {
	if days <= 0 {
		days = defaultInsightsDays
	}
	if days > maxInsightsDays {
		days = maxInsightsDays
	}

	cacheKey := caching.InsightsKey(tenantID, days)
	cached := &Insights{}
	if found, err := s.cacheSvc.GetJSON(ctx, cacheKey, cached); err == nil && found {
		return cached, nil
	} else if err != nil {
		log.Printf("WARN: insights cache read failed for tenant %s: %v", tenantID, err)
	}

	leads, err := s.leadRepo.ListSince(ctx, tenantID, days)
	if err != nil {
		return nil, err
	}

	insights := buildInsights(leads, days)
	if err := s.cacheSvc.SetJSON(ctx, cacheKey, insights, s.cacheTTL); err != nil {
		log.Printf("WARN: insights cache write failed for tenant %s: %v", tenantID, err)
	}
	return insights, nil
}

var bandLabels = []string{"0.0-0.2", "0.2-0.4", "0.4-0.6", "0.6-0.8", "0.8-1.0"}

func buildInsights(leads []*models.Lead, days int) *Insights {
	insights := &Insights{
		Days:        days,
		TotalLeads:  len(leads),
		Bands:       make([]ProbabilityBand, len(bandLabels)),
		GeneratedAt: time.Now().UTC(),
	}
	for i, label := range bandLabels {
		insights.Bands[i].Label = label
	}

	daily := make(map[string]*DailyPoint)
	converted := 0
	for _, lead := range leads {
		if lead.Probability != nil {
			band := bandIndex(*lead.Probability)
			insights.Bands[band].Count++
			if lead.Converted() {
				insights.Bands[band].Converted++
			}
		}
		if lead.Labeled() {
			insights.LabeledLeads++
			if lead.Converted() {
				converted++
			}
		}

		day := lead.CreatedAt.UTC().Format("2006-01-02")
		point, ok := daily[day]
		if !ok {
			point = &DailyPoint{Date: day}
			daily[day] = point
		}
		point.Leads++
		if lead.Converted() {
			point.Converted++
		}
	}

	if insights.LabeledLeads > 0 {
		insights.ConversionRate = float64(converted) / float64(insights.LabeledLeads)
	}

	// ListSince returns rows in ascending creation order, so walking the
	// leads again yields the series already sorted by day.
	seen := make(map[string]bool)
	for _, lead := range leads {
		day := lead.CreatedAt.UTC().Format("2006-01-02")
		if !seen[day] {
			seen[day] = true
			insights.Series = append(insights.Series, *daily[day])
		}
	}
	return insights
}

func bandIndex(probability float64) int {
	idx := int(probability / 0.2)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(bandLabels) {
		idx = len(bandLabels) - 1
	}
	return idx
}
