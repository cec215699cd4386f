package repositories

import (
	"context"

	"leadrank/internal/models"

	"github.com/google/uuid"
)

type SubscriptionRepository interface {
	Upsert(ctx context.Context, subscription *models.Subscription) error
	GetByTenant(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error)
}

type subscriptionRepo struct {
	db DB
}

func NewSubscriptionRepository(db DB) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

func (r *subscriptionRepo) Upsert(ctx context.Context, subscription *models.Subscription) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO subscriptions (tenant_id, provider, status, plan, current_period_start, current_period_end, cancel_at_period_end, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (tenant_id) DO UPDATE SET
		  provider = EXCLUDED.provider,
		  status = EXCLUDED.status,
		  plan = EXCLUDED.plan,
		  current_period_start = EXCLUDED.current_period_start,
		  current_period_end = EXCLUDED.current_period_end,
		  cancel_at_period_end = EXCLUDED.cancel_at_period_end,
		  updated_at = NOW()
	`, subscription.TenantID, subscription.Provider, subscription.Status, subscription.Plan,
		subscription.CurrentPeriodStart, subscription.CurrentPeriodEnd, subscription.CancelAtPeriodEnd)
	return err
}

func (r *subscriptionRepo) GetByTenant(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error) {
	subscription := &models.Subscription{}
	err := r.db.QueryRow(ctx, `
		SELECT tenant_id, provider, status, plan, current_period_start, current_period_end, cancel_at_period_end, updated_at
		FROM subscriptions
		WHERE tenant_id = $1
	`, tenantID).Scan(&subscription.TenantID, &subscription.Provider, &subscription.Status, &subscription.Plan,
		&subscription.CurrentPeriodStart, &subscription.CurrentPeriodEnd, &subscription.CancelAtPeriodEnd, &subscription.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return subscription, nil
}
