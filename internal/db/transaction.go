package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// The server and the CLI commands (ledger, gate, export) can hold the site
// database open at the same time, so a write can still land on SQLITE_BUSY
// even with WAL. Writes retry a few times with doubling backoff; the
// busy_timeout pragma covers the in-connection case.
const (
	writeAttempts  = 3
	writeBackoff   = 50 * time.Millisecond
	backoffCeiling = time.Second
)

// writeTx runs fn in a transaction, retrying on busy-database errors.
func (db *DB) writeTx(ctx context.Context, fn func(*sql.Tx) error) error {
	backoff := writeBackoff
	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := db.Transaction(ctx, fn)
		if err == nil {
			return nil
		}
		if !isBusyError(err) || attempt >= writeAttempts {
			return err
		}

		if err := sleepWithContext(ctx, backoff); err != nil {
			return err
		}
		backoff *= 2
		if backoff > backoffCeiling {
			backoff = backoffCeiling
		}
	}
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	message := strings.ToLower(err.Error())
	return strings.Contains(message, "database is locked") ||
		strings.Contains(message, "database is busy") ||
		strings.Contains(message, "sqlite_busy")
}

func sleepWithContext(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
