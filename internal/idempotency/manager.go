package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

// ErrRequestInProgress marks a duplicate arriving while the first execution
// for the same key is still running.
var ErrRequestInProgress = errors.New("request with this key is already in progress")

type Operation func(ctx context.Context) (interface{}, error)

type Result struct {
	Response  interface{}
	FromCache bool
}

// Manager executes an operation at most once per key within the record TTL.
type Manager interface {
	Execute(
		ctx context.Context,
		key string,
		ttl time.Duration,
		fn Operation,
	) (*Result, error)
}

type manager struct {
	store Store
	log   *slog.Logger
}

func NewManager(store Store, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		store: store,
		log:   log,
	}
}

const executionLockTTL = 5 * time.Minute

func (m *manager) Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if fn == nil {
		return nil, errors.New("operation fn cannot be nil")
	}

	if record, err := m.store.Get(ctx, key); err != nil {
		return nil, err
	} else if record != nil && record.Status == StatusCompleted {
		return cachedResult(record)
	}

	locked, err := m.store.Lock(ctx, key, executionLockTTL)
	if err != nil {
		return nil, err
	}

	if !locked {
		// the first execution holds the lock; check once more in case it
		// completed between our Get and Lock
		record, err := m.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if record != nil && record.Status == StatusCompleted {
			return cachedResult(record)
		}
		return nil, ErrRequestInProgress
	}

	defer func() {
		if err := m.store.ReleaseLock(ctx, key); err != nil {
			m.log.Warn("failed to release idempotency lock", slog.String("key", key), slog.Any("error", err))
		}
	}()

	result, err := fn(ctx)
	if err != nil {
		// A failed execution is not recorded; a retry of the same update
		// gets another attempt once the lock is released.
		return nil, err
	}

	responseBytes, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	if err := m.store.Set(ctx, key, &Record{
		Status:   StatusCompleted,
		Response: responseBytes,
	}, ttl); err != nil {
		return nil, err
	}

	return &Result{
		Response:  result,
		FromCache: false,
	}, nil
}

func cachedResult(record *Record) (*Result, error) {
	var response interface{}
	if len(record.Response) > 0 {
		if err := json.Unmarshal(record.Response, &response); err != nil {
			return nil, err
		}
	}
	return &Result{Response: response, FromCache: true}, nil
}
