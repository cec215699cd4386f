package models

import (
	"time"

	"github.com/google/uuid"
)

// Outcome values recorded by an operator. A nil Outcome means the lead
// is still pending.
const (
	OutcomeDenied    int16 = 0
	OutcomeConverted int16 = 1
)

type Lead struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	TenantID     uuid.UUID  `json:"tenant_id" db:"tenant_id"`
	Name         *string    `json:"name" db:"name"`
	Email        *string    `json:"email" db:"email"`
	Phone        *string    `json:"phone" db:"phone"`
	Origin       *string    `json:"origin" db:"origin"`
	TimeOnSite   int        `json:"time_on_site" db:"time_on_site"`
	PagesVisited int        `json:"pages_visited" db:"pages_visited"`
	ClickedPrice bool       `json:"clicked_price" db:"clicked_price"`
	Probability  *float64   `json:"probability" db:"probability"`
	Score        *int       `json:"score" db:"score"`
	Outcome      *int16     `json:"outcome" db:"outcome"`
	UsedModel    bool       `json:"used_model" db:"used_model"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Labeled reports whether an operator has recorded the true outcome.
func (l *Lead) Labeled() bool {
	return l.Outcome != nil
}

// Converted reports whether the lead was labeled as a won sale.
func (l *Lead) Converted() bool {
	return l.Outcome != nil && *l.Outcome == OutcomeConverted
}
