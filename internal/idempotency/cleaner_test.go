package idempotency

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRecords(t *testing.T, store *MemoryStore, n int, ttl time.Duration) {
	t.Helper()

	ctx := context.Background()
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("msg:42:%d", i)
		require.NoError(t, store.Set(ctx, key, &Record{Status: StatusCompleted}, ttl))
	}
}

func TestMemoryStore_SweepReclaimsExpiredRecords(t *testing.T) {
	store := NewMemoryStore()
	seedRecords(t, store, 1000, time.Nanosecond)

	removed := store.sweep(time.Now().Add(time.Millisecond))

	assert.Equal(t, 1000, removed)
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.records)
}

func TestMemoryStore_SweepKeepsLiveRecords(t *testing.T) {
	store := NewMemoryStore()
	seedRecords(t, store, 3, time.Hour)

	removed := store.sweep(time.Now())

	assert.Zero(t, removed)
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.records, 3)
}

func TestMemoryStore_SweepDropsStaleLocks(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	acquired, err := store.Lock(ctx, "msg:42:1", time.Nanosecond)
	require.NoError(t, err)
	require.True(t, acquired)

	store.sweep(time.Now().Add(time.Millisecond))

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.locks)
}

func TestCleaner_SweepsOnSchedule(t *testing.T) {
	store := NewMemoryStore()
	seedRecords(t, store, 10, time.Nanosecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		NewCleaner(store, testLogger(), 5*time.Millisecond).Run(ctx)
	}()

	assert.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.records) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
