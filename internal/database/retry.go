package database

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "lzpending/internal/errors"
	"lzpending/internal/retry"

	"github.com/mattn/go-sqlite3"
)

// retryableDBOperation runs operation with the store's backoff policy. Errors
// come back as AppErrors whose Retryable flag reflects isRetryableDBError.
func (d *Database) retryableDBOperation(ctx context.Context, operationName string, operation func() error) error {
	err := d.backoff.Do(ctx, func() error {
		if err := operation(); err != nil {
			appErr := apperrors.NewDatabaseError(operationName, err)
			appErr.Retryable = isRetryableDBError(err)
			return appErr
		}
		return nil
	})
	return err
}

func newBackoff(d *Database) *retry.Backoff {
	return retry.NewBackoff(retry.DefaultBackoffConfig()).
		OnRetry(func(attempt int, delay time.Duration, err error) {
			d.logger.WithError(err).WithFields(map[string]interface{}{
				"attempt":  attempt,
				"delay_ms": delay.Milliseconds(),
			}).Warn("Retrying database operation")
		})
}

// isRetryableDBError determines if a database error is worth retrying
func isRetryableDBError(err error) bool {
	if err == nil {
		return false
	}

	// Context timeout/cancellation are not retryable by us
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrIoErr:
			return true
		default:
			return false
		}
	}

	errStr := err.Error()

	// Database is locked errors are typically retryable
	if strings.Contains(errStr, "database is locked") {
		return true
	}

	// Disk I/O errors might be transient
	if strings.Contains(errStr, "disk I/O error") {
		return true
	}

	// For other errors, we'll be conservative and not retry
	return false
}
