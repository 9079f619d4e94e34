package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryLimiter is a sliding-window limiter for deployments without Redis.
// State is per process, so it only bounds a single instance.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	log     *slog.Logger
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter returns an in-memory limiter implementation.
func NewMemoryLimiter(log *slog.Logger) *MemoryLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &MemoryLimiter{
		windows: make(map[string][]time.Time),
		log:     log,
	}
}

// Check enforces a sliding-window limit for the provided key.
func (m *MemoryLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := time.Now()
	windowStart := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	recent := trimBefore(m.windows[key], windowStart)

	allowed := len(recent) < limit
	if allowed {
		recent = append(recent, now)
	}
	m.windows[key] = recent

	remaining := limit - len(recent)
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   windowStart.Add(window),
	}, nil
}

// Cleanup removes keys that have been inactive for more than maxAge.
func (m *MemoryLimiter) Cleanup(maxAge time.Duration) {
	if maxAge <= 0 {
		return
	}

	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, reqs := range m.windows {
		if len(reqs) == 0 || reqs[len(reqs)-1].Before(cutoff) {
			delete(m.windows, key)
		}
	}
}

func trimBefore(reqs []time.Time, windowStart time.Time) []time.Time {
	idx := 0
	for idx < len(reqs) && reqs[idx].Before(windowStart) {
		idx++
	}

	if idx == 0 {
		return reqs
	}

	copy(reqs, reqs[idx:])
	return reqs[:len(reqs)-idx]
}
