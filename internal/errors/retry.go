package errors

import (
	"context"
	"errors"
	"time"
)

const (
	MaxRetries     = 3
	InitialBackoff = 100 * time.Millisecond
	MaxBackoff     = 5 * time.Second
)

// WithRetry runs fn, retrying retryable failures with doubling backoff
// (200ms, 400ms, 800ms with the default constants). Non-retryable errors
// return immediately. Safe for store calls: every store write is an
// idempotent overwrite.
func WithRetry(ctx context.Context, fn func() error) error {
	if fn == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	delay := InitialBackoff

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) || attempt == MaxRetries {
			return err
		}

		delay *= 2
		if delay > MaxBackoff {
			delay = MaxBackoff
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// IsRetryable reports whether err is an AppError marked retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		return appErr.Retryable
	}

	return false
}
