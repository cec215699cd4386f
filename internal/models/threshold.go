package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantThreshold is the calibrated decision cutoff for one workspace.
// It is overwritten in place by the calibrator, never appended.
type TenantThreshold struct {
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Threshold float64   `json:"threshold" db:"threshold"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
