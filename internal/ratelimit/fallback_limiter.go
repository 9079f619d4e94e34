package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// FallbackLimiter delegates to a primary limiter and switches to an
// in-process one when the primary's backend fails. Limiting then only
// bounds the single instance, but a Redis outage no longer turns the
// limiter off entirely.
type FallbackLimiter struct {
	primary  Limiter
	fallback Limiter
	log      *slog.Logger
}

var _ Limiter = (*FallbackLimiter)(nil)

func NewFallbackLimiter(primary, fallback Limiter, log *slog.Logger) *FallbackLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &FallbackLimiter{
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

func (f *FallbackLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	result, err := f.primary.Check(ctx, key, limit, window)
	if err == nil {
		return result, nil
	}

	f.log.Warn("rate limit backend failed, using in-process fallback",
		slog.String("key", key), slog.Any("error", err))

	return f.fallback.Check(ctx, key, limit, window)
}
