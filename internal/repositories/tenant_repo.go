package repositories

import (
	"context"

	"leadrank/internal/models"

	"github.com/google/uuid"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, error)
	SetAPIKey(ctx context.Context, id uuid.UUID, apiKey string) error
	UpdatePlanStatus(ctx context.Context, id uuid.UUID, plan, status string) error
	ListActive(ctx context.Context, limit int) ([]*models.Tenant, error)
}

type tenantRepo struct {
	db DB
}

func NewTenantRepository(db DB) TenantRepository {
	return &tenantRepo{db: db}
}

const tenantColumns = `id, name, api_key, plan, status, usage_month, leads_used_month, created_at, updated_at`

func (r *tenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO tenants (id, name, api_key, plan, status, usage_month, leads_used_month, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, NOW(), NOW())
	`, tenant.ID, tenant.Name, tenant.APIKey, tenant.Plan, tenant.Status, tenant.UsageMonth)
	return err
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	err := r.db.QueryRow(ctx, `
		SELECT `+tenantColumns+`
		FROM tenants
		WHERE id = $1
	`, id).Scan(&tenant.ID, &tenant.Name, &tenant.APIKey, &tenant.Plan, &tenant.Status,
		&tenant.UsageMonth, &tenant.LeadsUsedMonth, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (r *tenantRepo) GetByAPIKey(ctx context.Context, apiKey string) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	err := r.db.QueryRow(ctx, `
		SELECT `+tenantColumns+`
		FROM tenants
		WHERE api_key = $1
	`, apiKey).Scan(&tenant.ID, &tenant.Name, &tenant.APIKey, &tenant.Plan, &tenant.Status,
		&tenant.UsageMonth, &tenant.LeadsUsedMonth, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (r *tenantRepo) SetAPIKey(ctx context.Context, id uuid.UUID, apiKey string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE tenants SET api_key = $1, updated_at = NOW() WHERE id = $2
	`, apiKey, id)
	return err
}

func (r *tenantRepo) UpdatePlanStatus(ctx context.Context, id uuid.UUID, plan, status string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE tenants SET plan = COALESCE(NULLIF($1, ''), plan),
		                   status = COALESCE(NULLIF($2, ''), status),
		                   updated_at = NOW()
		WHERE id = $3
	`, plan, status, id)
	return err
}

func (r *tenantRepo) ListActive(ctx context.Context, limit int) ([]*models.Tenant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+tenantColumns+`
		FROM tenants
		WHERE status = 'active'
		ORDER BY updated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant := &models.Tenant{}
		if err := rows.Scan(&tenant.ID, &tenant.Name, &tenant.APIKey, &tenant.Plan, &tenant.Status,
			&tenant.UsageMonth, &tenant.LeadsUsedMonth, &tenant.CreatedAt, &tenant.UpdatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}
