package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner drops idle windows from a MemoryLimiter on a schedule. Without
// it every user that ever sent an update keeps a window slice for the
// process lifetime. The redis limiter expires its keys itself.
type Cleaner struct {
	limiter  *MemoryLimiter
	log      *slog.Logger
	interval time.Duration
	maxAge   time.Duration
}

func NewCleaner(limiter *MemoryLimiter, log *slog.Logger, interval, maxAge time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		limiter:  limiter,
		log:      log,
		interval: interval,
		maxAge:   maxAge,
	}
}

// Run sweeps until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.limiter == nil || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("rate limit cleaner stopped")
			return
		case <-ticker.C:
			c.limiter.Cleanup(c.maxAge)
		}
	}
}
