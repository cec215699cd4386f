package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"leadrank/internal/config"
	"leadrank/internal/models"
	"leadrank/internal/repositories"

	"github.com/google/uuid"
)

// WebhookEvent is the normalized shape of a billing provider event.
type WebhookEvent struct {
	Type               string     `json:"type"`
	Provider           string     `json:"provider"`
	TenantID           string     `json:"tenant_id"`
	Plan               string     `json:"plan"`
	CurrentPeriodStart *time.Time `json:"current_period_start"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
}

type BillingService interface {
	// ProcessWebhookEvent maps a provider event onto the workspace's
	// subscription row and plan/status columns.
	ProcessWebhookEvent(ctx context.Context, event *WebhookEvent) (*models.Subscription, error)

	GetSubscription(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error)
}

type billingService struct {
	subscriptionRepo repositories.SubscriptionRepository
	tenantRepo       repositories.TenantRepository
}

func NewBillingService(subscriptionRepo repositories.SubscriptionRepository, tenantRepo repositories.TenantRepository) BillingService {
	return &billingService{subscriptionRepo: subscriptionRepo, tenantRepo: tenantRepo}
}

// statusForEvent maps provider event types onto subscription statuses.
// Unknown event types deactivate rather than silently keep access.
func statusForEvent(eventType string) string {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case "payment.approved", "subscription.renewed":
		return "active"
	case "subscription.past_due":
		return "past_due"
	case "subscription.canceled", "chargeback", "refund":
		return "canceled"
	default:
		return "inactive"
	}
}

func (s *billingService) ProcessWebhookEvent(ctx context.Context, event *WebhookEvent) (*models.Subscription, error) {
	tenantID, err := uuid.Parse(event.TenantID)
	if err != nil {
		return nil, fmt.Errorf("invalid tenant_id in webhook event: %w", err)
	}
	if _, err := s.tenantRepo.GetByID(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("unknown tenant %s: %w", tenantID, err)
	}

	status := statusForEvent(event.Type)
	plan := strings.ToLower(strings.TrimSpace(event.Plan))
	if plan != "" && !config.ValidPlan(plan) {
		log.Printf("WARN: webhook event %s carries unknown plan %q for tenant %s, keeping current plan", event.Type, event.Plan, tenantID)
		plan = ""
	}

	subscription := &models.Subscription{
		TenantID:           tenantID,
		Provider:           strings.TrimSpace(event.Provider),
		Status:             status,
		Plan:               plan,
		CurrentPeriodStart: event.CurrentPeriodStart,
		CurrentPeriodEnd:   event.CurrentPeriodEnd,
		CancelAtPeriodEnd:  event.CancelAtPeriodEnd,
	}
	if err := s.subscriptionRepo.Upsert(ctx, subscription); err != nil {
		return nil, fmt.Errorf("failed to upsert subscription: %w", err)
	}

	tenantStatus := status
	if status == "past_due" {
		// Grace period: past_due keeps the workspace scoring until the
		// provider escalates to a cancel event.
		tenantStatus = "active"
	}
	if err := s.tenantRepo.UpdatePlanStatus(ctx, tenantID, plan, tenantStatus); err != nil {
		return nil, fmt.Errorf("failed to update tenant plan/status: %w", err)
	}

	log.Printf("billing: tenant %s -> status=%s plan=%q (event %s)", tenantID, status, plan, event.Type)
	return subscription, nil
}

func (s *billingService) GetSubscription(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error) {
	return s.subscriptionRepo.GetByTenant(ctx, tenantID)
}
