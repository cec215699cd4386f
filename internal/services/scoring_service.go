package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"leadrank/internal/caching"
	"leadrank/internal/common"
	"leadrank/internal/config"
	"leadrank/internal/ml"
	"leadrank/internal/models"
	"leadrank/internal/repositories"

	"github.com/google/uuid"
)

// trainingRowCap bounds the labeled set loaded per training call, so a
// very active workspace keeps O(1)-ish request cost.
const trainingRowCap = 5000

// ScoreRequest carries the sanitized raw signals of one submission.
type ScoreRequest struct {
	Name         string
	Email        string
	Phone        string
	Origin       string
	TimeOnSite   int
	PagesVisited int
	ClickedPrice bool
}

// ScoreResult is the outcome of scoring and persisting one lead.
type ScoreResult struct {
	Lead        *models.Lead
	Probability float64
	Score       int
	UsedModel   bool
	Plan        string
}

type ScoringService interface {
	// ScoreLead extracts features, scores with the trained classifier
	// when the workspace is eligible (heuristic otherwise), and
	// persists the lead together with the usage-counter increment in
	// one transaction.
	ScoreLead(ctx context.Context, tenant *models.Tenant, req *ScoreRequest) (*ScoreResult, error)

	// SetOutcome records an operator label, making the lead part of
	// the workspace's training set.
	SetOutcome(ctx context.Context, tenantID, leadID uuid.UUID, outcome int16) error
}

type scoringService struct {
	leadRepo repositories.LeadRepository
	cacheSvc caching.CacheService
}

func NewScoringService(leadRepo repositories.LeadRepository, cacheSvc caching.CacheService) ScoringService {
	return &scoringService{leadRepo: leadRepo, cacheSvc: cacheSvc}
}

func (s *scoringService) ScoreLead(ctx context.Context, tenant *models.Tenant, req *ScoreRequest) (*ScoreResult, error) {
	if tenant == nil {
		return nil, errors.New("tenant is required")
	}
	if !tenant.Active() {
		return nil, fmt.Errorf("workspace %s is inactive", tenant.ID)
	}

	features := ml.ExtractFeatures(req.TimeOnSite, req.PagesVisited, req.ClickedPrice)

	// Pick the scoring strategy once per call: a freshly trained
	// classifier when eligible, the heuristic otherwise.
	probability, usedModel := s.scoreFeatures(ctx, tenant.ID, features)
	score := ml.ScoreFromProbability(probability)

	lead := &models.Lead{
		ID:           uuid.New(),
		TenantID:     tenant.ID,
		Name:         common.StringPtr(common.SanitizeName(req.Name)),
		Email:        common.StringPtr(req.Email),
		Phone:        common.StringPtr(common.SanitizePhone(req.Phone)),
		Origin:       common.StringPtr(common.SanitizeOrigin(req.Origin)),
		TimeOnSite:   req.TimeOnSite,
		PagesVisited: req.PagesVisited,
		ClickedPrice: req.ClickedPrice,
		Probability:  &probability,
		Score:        &score,
		UsedModel:    usedModel,
	}

	plan := config.PlanByName(tenant.Plan)
	monthKey := common.MonthKey(time.Now())
	if err := s.leadRepo.InsertScored(ctx, lead, plan.Name, plan.LeadLimitMonth, monthKey); err != nil {
		return nil, err
	}

	if err := s.cacheSvc.InvalidateTenant(ctx, tenant.ID); err != nil {
		log.Printf("WARN: cache invalidation failed for tenant %s: %v", tenant.ID, err)
	}

	return &ScoreResult{
		Lead:        lead,
		Probability: probability,
		Score:       score,
		UsedModel:   usedModel,
		Plan:        plan.Name,
	}, nil
}

// scoreFeatures returns a probability strictly inside (0, 1) and
// whether a trained classifier produced it. Training failures fall back
// to the heuristic: they are model-quality signals, not system faults.
func (s *scoringService) scoreFeatures(ctx context.Context, tenantID uuid.UUID, features ml.Features) (float64, bool) {
	labeled, err := s.leadRepo.ListLabeled(ctx, tenantID, trainingRowCap)
	if err != nil {
		log.Printf("WARN: loading labeled set for tenant %s failed, using heuristic: %v", tenantID, err)
		return ml.HeuristicScore(features), false
	}

	examples := ExamplesFromLeads(labeled)
	if elig := ml.CheckEligibility(examples); !elig.CanTrain {
		return ml.HeuristicScore(features), false
	}

	model, err := ml.Train(examples)
	if err != nil {
		log.Printf("WARN: training failed for tenant %s, using heuristic: %v", tenantID, err)
		return ml.HeuristicScore(features), false
	}
	return ml.ClampProbability(model.Predict(features)), true
}

func (s *scoringService) SetOutcome(ctx context.Context, tenantID, leadID uuid.UUID, outcome int16) error {
	if outcome != models.OutcomeConverted && outcome != models.OutcomeDenied {
		return fmt.Errorf("invalid outcome %d", outcome)
	}
	if err := s.leadRepo.SetOutcome(ctx, tenantID, leadID, outcome); err != nil {
		return err
	}
	if err := s.cacheSvc.InvalidateTenant(ctx, tenantID); err != nil {
		log.Printf("WARN: cache invalidation failed for tenant %s: %v", tenantID, err)
	}
	return nil
}

// ExamplesFromLeads converts labeled leads into training examples.
// Unlabeled rows are skipped.
func ExamplesFromLeads(leads []*models.Lead) []ml.Example {
	examples := make([]ml.Example, 0, len(leads))
	for _, lead := range leads {
		if !lead.Labeled() {
			continue
		}
		examples = append(examples, ml.Example{
			Features:  ml.ExtractFeatures(lead.TimeOnSite, lead.PagesVisited, lead.ClickedPrice),
			Converted: lead.Converted(),
		})
	}
	return examples
}
