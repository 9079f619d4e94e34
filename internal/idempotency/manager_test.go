package idempotency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupRedisStore(t *testing.T) Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, testLogger())
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"redis":  setupRedisStore(t),
		"memory": NewMemoryStore(),
	}
}

func TestManager_ExecutesOncePerKey(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			manager := NewManager(store, testLogger())
			ctx := context.Background()

			calls := 0
			fn := func(ctx context.Context) (interface{}, error) {
				calls++
				return "done", nil
			}

			first, err := manager.Execute(ctx, "msg:1:10", time.Hour, fn)
			require.NoError(t, err)
			assert.False(t, first.FromCache)

			second, err := manager.Execute(ctx, "msg:1:10", time.Hour, fn)
			require.NoError(t, err)
			assert.True(t, second.FromCache)

			assert.Equal(t, 1, calls)
		})
	}
}

func TestManager_DistinctKeysBothExecute(t *testing.T) {
	manager := NewManager(NewMemoryStore(), testLogger())
	ctx := context.Background()

	calls := 0
	fn := func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, nil
	}

	_, err := manager.Execute(ctx, "msg:1:10", time.Hour, fn)
	require.NoError(t, err)
	_, err = manager.Execute(ctx, "msg:1:11", time.Hour, fn)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestManager_FailedExecutionAllowsRetry(t *testing.T) {
	manager := NewManager(NewMemoryStore(), testLogger())
	ctx := context.Background()

	boom := errors.New("boom")
	calls := 0

	_, err := manager.Execute(ctx, "msg:2:1", time.Hour, func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	result, err := manager.Execute(ctx, "msg:2:1", time.Hour, func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, nil
	})
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, 2, calls)
}

func TestManager_ConcurrentDuplicateIsRejected(t *testing.T) {
	manager := NewManager(NewMemoryStore(), testLogger())
	ctx := context.Background()

	started := make(chan struct{})
	finish := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := manager.Execute(ctx, "cb:abc", time.Hour, func(ctx context.Context) (interface{}, error) {
			close(started)
			<-finish
			return nil, nil
		})
		done <- err
	}()

	<-started

	_, err := manager.Execute(ctx, "cb:abc", time.Hour, func(ctx context.Context) (interface{}, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrRequestInProgress)

	close(finish)
	require.NoError(t, <-done)
}
