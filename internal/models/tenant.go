package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is an isolated workspace. UsageMonth and LeadsUsedMonth make up
// the monthly usage counter owned by the usage gate; nothing else may
// write those two columns.
type Tenant struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	APIKey         *string   `json:"api_key,omitempty" db:"api_key"`
	Plan           string    `json:"plan" db:"plan"`
	Status         string    `json:"status" db:"status"`
	UsageMonth     string    `json:"usage_month" db:"usage_month"`
	LeadsUsedMonth int       `json:"leads_used_month" db:"leads_used_month"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Active reports whether the workspace may submit leads.
func (t *Tenant) Active() bool {
	return t.Status == "active"
}
