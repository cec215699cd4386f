package repositories

import (
	"context"
	"fmt"

	"leadrank/internal/models"

	"github.com/google/uuid"
)

// OriginCount is one row of the top-origins aggregation.
type OriginCount struct {
	Origin string `json:"origin"`
	Total  int    `json:"total"`
}

type LeadRepository interface {
	// InsertScored persists a freshly scored lead and bumps the
	// tenant's monthly usage counter in one transaction. Either both
	// happen or neither does; a *QuotaExceededError means the lead was
	// not persisted.
	InsertScored(ctx context.Context, lead *models.Lead, plan string, planLimit int, monthKey string) error

	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Lead, error)
	ListRecent(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Lead, error)
	ListLabeled(ctx context.Context, tenantID uuid.UUID, limit int) ([]*models.Lead, error)
	ListPending(ctx context.Context, tenantID uuid.UUID, limit int) ([]*models.Lead, error)
	ListSince(ctx context.Context, tenantID uuid.UUID, days int) ([]*models.Lead, error)
	ListForExport(ctx context.Context, tenantID uuid.UUID) ([]*models.Lead, error)

	SetOutcome(ctx context.Context, tenantID, id uuid.UUID, outcome int16) error
	SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error
	UpdateProbabilities(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, probs []float64, scores []int) (int, error)

	Count(ctx context.Context, tenantID uuid.UUID) (int, error)
	CountByState(ctx context.Context, tenantID uuid.UUID) (total, labeled, pending int, err error)
	TopOrigins(ctx context.Context, tenantID uuid.UUID, days, limit int) ([]OriginCount, error)

	PurgeDeleted(ctx context.Context, olderThanDays int) (int64, error)
}

type leadRepo struct {
	db DB
}

func NewLeadRepository(db DB) LeadRepository {
	return &leadRepo{db: db}
}

const leadColumns = `id, tenant_id, name, email, phone, origin, time_on_site, pages_visited, clicked_price,
	       probability, score, outcome, used_model, created_at, updated_at`

func (r *leadRepo) InsertScored(ctx context.Context, lead *models.Lead, plan string, planLimit int, monthKey string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin scored-lead tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := checkAndIncrementUsage(ctx, tx, lead.TenantID, plan, planLimit, monthKey); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO leads (id, tenant_id, name, email, phone, origin, time_on_site, pages_visited, clicked_price,
		                   probability, score, outcome, used_model, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULL, $12, NOW(), NOW())
	`, lead.ID, lead.TenantID, lead.Name, lead.Email, lead.Phone, lead.Origin,
		lead.TimeOnSite, lead.PagesVisited, lead.ClickedPrice,
		lead.Probability, lead.Score, lead.UsedModel)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *leadRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Lead, error) {
	lead := &models.Lead{}
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(
		&lead.ID, &lead.TenantID, &lead.Name, &lead.Email, &lead.Phone, &lead.Origin,
		&lead.TimeOnSite, &lead.PagesVisited, &lead.ClickedPrice,
		&lead.Probability, &lead.Score, &lead.Outcome, &lead.UsedModel,
		&lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func (r *leadRepo) ListRecent(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.queryLeads(ctx, query, tenantID, limit, offset)
}

func (r *leadRepo) ListLabeled(ctx context.Context, tenantID uuid.UUID, limit int) ([]*models.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE tenant_id = $1 AND deleted_at IS NULL AND outcome IS NOT NULL
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.queryLeads(ctx, query, tenantID, limit)
}

func (r *leadRepo) ListPending(ctx context.Context, tenantID uuid.UUID, limit int) ([]*models.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE tenant_id = $1 AND deleted_at IS NULL AND outcome IS NULL
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.queryLeads(ctx, query, tenantID, limit)
}

func (r *leadRepo) ListSince(ctx context.Context, tenantID uuid.UUID, days int) ([]*models.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE tenant_id = $1 AND deleted_at IS NULL
		  AND created_at >= (NOW() - ($2 || ' days')::interval)
		ORDER BY created_at ASC
	`
	return r.queryLeads(ctx, query, tenantID, days)
}

func (r *leadRepo) ListForExport(ctx context.Context, tenantID uuid.UUID) ([]*models.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE tenant_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`
	return r.queryLeads(ctx, query, tenantID)
}

func (r *leadRepo) queryLeads(ctx context.Context, query string, args ...any) ([]*models.Lead, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*models.Lead
	for rows.Next() {
		lead := &models.Lead{}
		if err := rows.Scan(
			&lead.ID, &lead.TenantID, &lead.Name, &lead.Email, &lead.Phone, &lead.Origin,
			&lead.TimeOnSite, &lead.PagesVisited, &lead.ClickedPrice,
			&lead.Probability, &lead.Score, &lead.Outcome, &lead.UsedModel,
			&lead.CreatedAt, &lead.UpdatedAt); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// SetOutcome records an operator label. Idempotent: re-setting the same
// outcome is allowed and touches only updated_at.
func (r *leadRepo) SetOutcome(ctx context.Context, tenantID, id uuid.UUID, outcome int16) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE leads SET outcome = $1, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3 AND deleted_at IS NULL
	`, outcome, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lead %s not found", id)
	}
	return nil
}

// SoftDelete hides a lead from every read path. The row stays until the
// retention purge removes it.
func (r *leadRepo) SoftDelete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE leads SET deleted_at = NOW(), updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2 AND deleted_at IS NULL
	`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lead %s not found", id)
	}
	return nil
}

// UpdateProbabilities rewrites stored probabilities (and the derived
// scores) for the given leads in one transaction. Only the batch
// recalculator and the calibrator's backfill step may call it.
func (r *leadRepo) UpdateProbabilities(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID, probs []float64, scores []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if len(ids) != len(probs) || len(ids) != len(scores) {
		return 0, fmt.Errorf("mismatched batch sizes: %d ids, %d probabilities, %d scores", len(ids), len(probs), len(scores))
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin probability rewrite tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i, id := range ids {
		_, err := tx.Exec(ctx, `
			UPDATE leads SET probability = $1, score = $2, updated_at = NOW()
			WHERE tenant_id = $3 AND id = $4 AND deleted_at IS NULL
		`, probs[i], scores[i], tenantID, id)
		if err != nil {
			return 0, fmt.Errorf("rewrite probability for lead %s: %w", id, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (r *leadRepo) Count(ctx context.Context, tenantID uuid.UUID) (int, error) {
	var total int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM leads WHERE tenant_id = $1 AND deleted_at IS NULL`,
		tenantID,
	).Scan(&total)
	return total, err
}

func (r *leadRepo) CountByState(ctx context.Context, tenantID uuid.UUID) (total, labeled, pending int, err error) {
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE outcome IS NOT NULL),
		       COUNT(*) FILTER (WHERE outcome IS NULL)
		FROM leads
		WHERE tenant_id = $1 AND deleted_at IS NULL
	`, tenantID).Scan(&total, &labeled, &pending)
	return total, labeled, pending, err
}

func (r *leadRepo) TopOrigins(ctx context.Context, tenantID uuid.UUID, days, limit int) ([]OriginCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT COALESCE(NULLIF(TRIM(origin), ''), 'unknown') AS origin, COUNT(*)::int AS total
		FROM leads
		WHERE tenant_id = $1 AND deleted_at IS NULL
		  AND created_at >= (NOW() - ($2 || ' days')::interval)
		GROUP BY 1
		ORDER BY total DESC, origin ASC
		LIMIT $3
	`, tenantID, days, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var origins []OriginCount
	for rows.Next() {
		var oc OriginCount
		if err := rows.Scan(&oc.Origin, &oc.Total); err != nil {
			return nil, err
		}
		origins = append(origins, oc)
	}
	return origins, rows.Err()
}

// PurgeDeleted hard-deletes soft-deleted leads older than the retention
// window. Called from the background scheduler.
func (r *leadRepo) PurgeDeleted(ctx context.Context, olderThanDays int) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM leads
		WHERE deleted_at IS NOT NULL
		  AND deleted_at < (NOW() - ($1 || ' days')::interval)
	`, olderThanDays)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
