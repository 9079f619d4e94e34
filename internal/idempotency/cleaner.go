package idempotency

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner reclaims expired records from a MemoryStore on a schedule. The
// redis store needs none of this: its keys carry TTLs and Redis evicts
// them itself.
type Cleaner struct {
	store    *MemoryStore
	log      *slog.Logger
	interval time.Duration
}

func NewCleaner(store *MemoryStore, log *slog.Logger, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		store:    store,
		log:      log,
		interval: interval,
	}
}

// Run sweeps until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.store == nil || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("idempotency cleaner stopped")
			return
		case <-ticker.C:
			if removed := c.store.sweep(time.Now()); removed > 0 {
				c.log.Info("expired idempotency records removed", slog.Int("count", removed))
			}
		}
	}
}
