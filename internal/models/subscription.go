package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription mirrors the billing provider's view of a workspace. One
// row per tenant, upserted from webhook events.
type Subscription struct {
	TenantID           uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Provider           string     `json:"provider" db:"provider"`
	Status             string     `json:"status" db:"status"`
	Plan               string     `json:"plan" db:"plan"`
	CurrentPeriodStart *time.Time `json:"current_period_start" db:"current_period_start"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end" db:"current_period_end"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end" db:"cancel_at_period_end"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}
