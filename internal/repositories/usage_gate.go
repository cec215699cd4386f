package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// QuotaExceededError reports a monthly plan limit hit. The write that
// triggered it is rolled back in full; Used and Limit are carried for
// client display.
type QuotaExceededError struct {
	Plan  string
	Used  int
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("monthly lead limit reached for plan %s (%d/%d)", e.Plan, e.Used, e.Limit)
}

// checkAndIncrementUsage is the usage gate. It must run inside the same
// transaction as the lead insert: the row lock serializes concurrent
// writers for one tenant, the lazy month rollover resets the counter on
// the first access of a new calendar month, and the pre-increment check
// guarantees the stored count never exceeds the plan limit. A planLimit
// of 0 means unlimited.
func checkAndIncrementUsage(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID, plan string, planLimit int, monthKey string) error {
	var storedMonth string
	var used int
	err := tx.QueryRow(ctx,
		`SELECT usage_month, leads_used_month FROM tenants WHERE id = $1 FOR UPDATE`,
		tenantID,
	).Scan(&storedMonth, &used)
	if err != nil {
		return fmt.Errorf("lock usage counter: %w", err)
	}

	if storedMonth != monthKey {
		used = 0
	}
	if planLimit > 0 && used >= planLimit {
		return &QuotaExceededError{Plan: plan, Used: used, Limit: planLimit}
	}

	_, err = tx.Exec(ctx,
		`UPDATE tenants SET usage_month = $1, leads_used_month = $2, updated_at = NOW() WHERE id = $3`,
		monthKey, used+1, tenantID,
	)
	if err != nil {
		return fmt.Errorf("increment usage counter: %w", err)
	}
	return nil
}
