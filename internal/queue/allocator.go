// Package queue issues daily queue numbers. Numbers are positive integers,
// monotonically increasing within a business date and resetting to 1 each
// new day. Concurrent creations are serialised per business date by a
// transaction-scoped advisory lock.
package queue

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"tokyojung/internal/core"
)

const (
	maxAttempts = 3
	baseBackoff = 10 * time.Millisecond
)

// Allocate returns the next queue number for businessDate. It must run
// inside the transaction that inserts the order so the UNIQUE
// (business_date, queue_number) constraint and the advisory lock cover the
// same commit point.
func Allocate(ctx context.Context, tx pgx.Tx, businessDate string) (int, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(Backoff(attempt)):
			case <-ctx.Done():
				return 0, core.Wrap(core.CodeTimeout, ctx.Err(), "queue allocation cancelled")
			}
		}

		n, err := allocateOnce(ctx, tx, businessDate)
		if err == nil {
			return n, nil
		}
		lastErr = err
	}
	return 0, core.Wrap(core.CodeInternal, lastErr, "queue number allocation failed")
}

func allocateOnce(ctx context.Context, tx pgx.Tx, businessDate string) (int, error) {
	// The lock is released at commit/rollback, which serialises creations
	// for one business date through the critical section.
	_, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext('queue:' || $1))`, businessDate)
	if err != nil {
		return 0, err
	}

	var next int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(queue_number), 0) + 1
		FROM orders
		WHERE business_date = $1::date`, businessDate).Scan(&next)
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Backoff returns the exponential delay before the given retry attempt.
func Backoff(attempt int) time.Duration {
	return baseBackoff << (attempt - 1)
}
