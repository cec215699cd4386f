package repositories

import (
	"context"
	"errors"

	"leadrank/internal/ml"
	"leadrank/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ThresholdRepository interface {
	// Get returns the tenant's calibrated threshold, or the system
	// default when none has been persisted yet.
	Get(ctx context.Context, tenantID uuid.UUID) (float64, error)
	// GetRecord returns the full threshold row. An uncalibrated tenant
	// gets a default-threshold record with a zero UpdatedAt.
	GetRecord(ctx context.Context, tenantID uuid.UUID) (*models.TenantThreshold, error)
	// Set overwrites the tenant's threshold.
	Set(ctx context.Context, tenantID uuid.UUID, threshold float64) error
}

type thresholdRepo struct {
	db DB
}

func NewThresholdRepository(db DB) ThresholdRepository {
	return &thresholdRepo{db: db}
}

func (r *thresholdRepo) Get(ctx context.Context, tenantID uuid.UUID) (float64, error) {
	var threshold float64
	err := r.db.QueryRow(ctx,
		`SELECT threshold FROM thresholds WHERE tenant_id = $1`,
		tenantID,
	).Scan(&threshold)
	if errors.Is(err, pgx.ErrNoRows) {
		return ml.DefaultThreshold, nil
	}
	if err != nil {
		return 0, err
	}
	return threshold, nil
}

func (r *thresholdRepo) GetRecord(ctx context.Context, tenantID uuid.UUID) (*models.TenantThreshold, error) {
	record := &models.TenantThreshold{TenantID: tenantID, Threshold: ml.DefaultThreshold}
	err := r.db.QueryRow(ctx,
		`SELECT threshold, updated_at FROM thresholds WHERE tenant_id = $1`,
		tenantID,
	).Scan(&record.Threshold, &record.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return record, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *thresholdRepo) Set(ctx context.Context, tenantID uuid.UUID, threshold float64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO thresholds (tenant_id, threshold, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (tenant_id)
		DO UPDATE SET threshold = EXCLUDED.threshold, updated_at = NOW()
	`, tenantID, threshold)
	return err
}
