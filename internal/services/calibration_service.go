package services

import (
	"context"
	"log"

	"leadrank/internal/caching"
	"leadrank/internal/ml"
	"leadrank/internal/models"
	"leadrank/internal/repositories"

	"github.com/google/uuid"
)

const (
	defaultRecalcLimit = 500
	minRecalcLimit     = 10
	maxRecalcLimit     = 5000
)

// CalibrationResult reports a threshold recalibration. When CanTrain is
// false the previous threshold is left untouched and Threshold echoes
// the currently effective value.
type CalibrationResult struct {
	CanTrain     bool    `json:"can_train"`
	Reason       string  `json:"reason,omitempty"`
	Classes      []int   `json:"labeled_classes"`
	LabeledCount int     `json:"labeled_count"`
	Threshold    float64 `json:"threshold"`
	Precision    float64 `json:"precision"`
	Recall       float64 `json:"recall"`
	F1           float64 `json:"f1"`
}

// RecalcSample is one re-scored lead echoed back for display.
type RecalcSample struct {
	LeadID      uuid.UUID `json:"lead_id"`
	Probability float64   `json:"probability"`
}

// RecalcResult reports a pending-backlog recalculation.
type RecalcResult struct {
	CanTrain     bool           `json:"can_train"`
	Reason       string         `json:"reason,omitempty"`
	Classes      []int          `json:"labeled_classes"`
	LabeledCount int            `json:"labeled_count"`
	Updated      int            `json:"updated"`
	MinProb      *float64       `json:"min_prob,omitempty"`
	MaxProb      *float64       `json:"max_prob,omitempty"`
	Sample       []RecalcSample `json:"sample"`
}

type CalibrationService interface {
	// RecalibrateThreshold grid-searches the F1-optimal decision
	// threshold over the workspace's labeled set and persists it.
	// Labeled rows missing a probability are backfilled first, so the
	// search never runs against partially populated data.
	RecalibrateThreshold(ctx context.Context, tenantID uuid.UUID) (*CalibrationResult, error)

	// RecalculatePending re-scores the most recent pending leads with
	// a classifier trained on the current labeled set.
	RecalculatePending(ctx context.Context, tenantID uuid.UUID, limit int) (*RecalcResult, error)

	// Threshold returns the currently effective decision threshold and
	// when it was last calibrated. Uncalibrated workspaces get the
	// default with a zero timestamp.
	Threshold(ctx context.Context, tenantID uuid.UUID) (*models.TenantThreshold, error)
}

type calibrationService struct {
	leadRepo      repositories.LeadRepository
	thresholdRepo repositories.ThresholdRepository
	cacheSvc      caching.CacheService
}

func NewCalibrationService(leadRepo repositories.LeadRepository, thresholdRepo repositories.ThresholdRepository, cacheSvc caching.CacheService) CalibrationService {
	return &calibrationService{leadRepo: leadRepo, thresholdRepo: thresholdRepo, cacheSvc: cacheSvc}
}

func (s *calibrationService) Threshold(ctx context.Context, tenantID uuid.UUID) (*models.TenantThreshold, error) {
	return s.thresholdRepo.GetRecord(ctx, tenantID)
}

func (s *calibrationService) RecalibrateThreshold(ctx context.Context, tenantID uuid.UUID) (*CalibrationResult, error) {
	labeled, err := s.leadRepo.ListLabeled(ctx, tenantID, trainingRowCap)
	if err != nil {
		return nil, err
	}

	examples := ExamplesFromLeads(labeled)
	elig := ml.CheckEligibility(examples)
	if !elig.CanTrain {
		return s.cannotCalibrate(ctx, tenantID, elig.Reason, elig.Classes, len(examples))
	}

	// Backfill any labeled rows that never got a probability, then
	// re-read so the search sees ground truth.
	if hasMissingProbability(labeled) {
		model, err := ml.Train(examples)
		if err != nil {
			return s.cannotCalibrate(ctx, tenantID, "classifier failed to converge on the current labeled set", elig.Classes, len(examples))
		}
		if err := s.backfill(ctx, tenantID, labeled, model); err != nil {
			return nil, err
		}
		labeled, err = s.leadRepo.ListLabeled(ctx, tenantID, trainingRowCap)
		if err != nil {
			return nil, err
		}
	}

	predictions := predictionsFromLeads(labeled)
	bestT, metrics := ml.BestThreshold(predictions)
	if err := s.thresholdRepo.Set(ctx, tenantID, bestT); err != nil {
		return nil, err
	}
	if err := s.cacheSvc.InvalidateTenant(ctx, tenantID); err != nil {
		log.Printf("WARN: cache invalidation failed for tenant %s: %v", tenantID, err)
	}

	return &CalibrationResult{
		CanTrain:     true,
		Classes:      elig.Classes,
		LabeledCount: len(examples),
		Threshold:    bestT,
		Precision:    metrics.Precision,
		Recall:       metrics.Recall,
		F1:           metrics.F1,
	}, nil
}

func (s *calibrationService) RecalculatePending(ctx context.Context, tenantID uuid.UUID, limit int) (*RecalcResult, error) {
	if limit <= 0 {
		limit = defaultRecalcLimit
	}
	if limit < minRecalcLimit {
		limit = minRecalcLimit
	}
	if limit > maxRecalcLimit {
		limit = maxRecalcLimit
	}

	labeled, err := s.leadRepo.ListLabeled(ctx, tenantID, trainingRowCap)
	if err != nil {
		return nil, err
	}

	examples := ExamplesFromLeads(labeled)
	elig := ml.CheckEligibility(examples)
	if !elig.CanTrain {
		return &RecalcResult{
			Reason:       elig.Reason,
			Classes:      elig.Classes,
			LabeledCount: len(examples),
		}, nil
	}

	model, err := ml.Train(examples)
	if err != nil {
		return &RecalcResult{
			Reason:       "classifier failed to converge on the current labeled set",
			Classes:      elig.Classes,
			LabeledCount: len(examples),
		}, nil
	}

	pending, err := s.leadRepo.ListPending(ctx, tenantID, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(pending))
	probs := make([]float64, len(pending))
	scores := make([]int, len(pending))
	for i, lead := range pending {
		features := ml.ExtractFeatures(lead.TimeOnSite, lead.PagesVisited, lead.ClickedPrice)
		probs[i] = ml.ClampProbability(model.Predict(features))
		scores[i] = ml.ScoreFromProbability(probs[i])
		ids[i] = lead.ID
	}

	updated, err := s.leadRepo.UpdateProbabilities(ctx, tenantID, ids, probs, scores)
	if err != nil {
		return nil, err
	}
	if err := s.cacheSvc.InvalidateTenant(ctx, tenantID); err != nil {
		log.Printf("WARN: cache invalidation failed for tenant %s: %v", tenantID, err)
	}

	result := &RecalcResult{
		CanTrain:     true,
		Classes:      elig.Classes,
		LabeledCount: len(examples),
		Updated:      updated,
		Sample:       make([]RecalcSample, 0, 5),
	}
	for i := 0; i < len(ids) && i < 5; i++ {
		result.Sample = append(result.Sample, RecalcSample{LeadID: ids[i], Probability: probs[i]})
	}
	if len(probs) > 0 {
		minP, maxP := probs[0], probs[0]
		for _, p := range probs[1:] {
			if p < minP {
				minP = p
			}
			if p > maxP {
				maxP = p
			}
		}
		result.MinProb = &minP
		result.MaxProb = &maxP
	}
	return result, nil
}

func (s *calibrationService) cannotCalibrate(ctx context.Context, tenantID uuid.UUID, reason string, classes []int, labeledCount int) (*CalibrationResult, error) {
	current, err := s.thresholdRepo.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &CalibrationResult{
		Reason:       reason,
		Classes:      classes,
		LabeledCount: labeledCount,
		Threshold:    current,
	}, nil
}

func (s *calibrationService) backfill(ctx context.Context, tenantID uuid.UUID, labeled []*models.Lead, model *ml.Model) error {
	var ids []uuid.UUID
	var probs []float64
	var scores []int
	for _, lead := range labeled {
		if lead.Probability != nil {
			continue
		}
		features := ml.ExtractFeatures(lead.TimeOnSite, lead.PagesVisited, lead.ClickedPrice)
		p := ml.ClampProbability(model.Predict(features))
		ids = append(ids, lead.ID)
		probs = append(probs, p)
		scores = append(scores, ml.ScoreFromProbability(p))
	}
	_, err := s.leadRepo.UpdateProbabilities(ctx, tenantID, ids, probs, scores)
	return err
}

func hasMissingProbability(leads []*models.Lead) bool {
	for _, lead := range leads {
		if lead.Probability == nil {
			return true
		}
	}
	return false
}

func predictionsFromLeads(leads []*models.Lead) []ml.LabeledPrediction {
	predictions := make([]ml.LabeledPrediction, 0, len(leads))
	for _, lead := range leads {
		if !lead.Labeled() || lead.Probability == nil {
			continue
		}
		predictions = append(predictions, ml.LabeledPrediction{
			Probability: *lead.Probability,
			Converted:   lead.Converted(),
		})
	}
	return predictions
}
