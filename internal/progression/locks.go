package progression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	identityLockKeyPattern = "progress:lock:%d"
	identityLockTTL        = 5 * time.Second
)

// ErrIdentityLocked indicates a concurrent event for the same identity is
// already inside its decision-plus-write window.
var ErrIdentityLocked = errors.New("identity is locked, try again later")

// Locker serializes concurrent events per identity. The lock is held only
// for the duration of one decision plus its store writes, closing the
// double-tap race the store's last-write-wins semantics would otherwise
// leave open.
type Locker interface {
	// Acquire takes the identity's lock and returns its release function.
	// Acquire never blocks: a lock already held surfaces as
	// ErrIdentityLocked so the caller can drop the concurrent event.
	Acquire(ctx context.Context, chatID int64) (func(), error)
}

// RedisLocker implements Locker with a SETNX lock, coordinating across
// process replicas.
type RedisLocker struct {
	client *redis.Client
	log    *slog.Logger
}

var _ Locker = (*RedisLocker)(nil)

func NewRedisLocker(client *redis.Client, log *slog.Logger) *RedisLocker {
	if log == nil {
		log = slog.Default()
	}

	return &RedisLocker{client: client, log: log}
}

func (l *RedisLocker) Acquire(ctx context.Context, chatID int64) (func(), error) {
	key := fmt.Sprintf(identityLockKeyPattern, chatID)

	acquired, err := l.client.SetNX(ctx, key, 1, identityLockTTL).Result()
	if err != nil {
		l.log.Error("failed to acquire identity lock", slog.Int64("chat_id", chatID), slog.Any("error", err))
		return nil, err
	}

	if !acquired {
		l.log.Warn("identity lock already held", slog.Int64("chat_id", chatID))
		return nil, ErrIdentityLocked
	}

	release := func() {
		if err := l.client.Del(context.Background(), key).Err(); err != nil {
			l.log.Error("failed to release identity lock", slog.Int64("chat_id", chatID), slog.Any("error", err))
		}
	}

	return release, nil
}

// MemoryLocker implements Locker for deployments without Redis. It keeps
// expiring hold records, giving the same drop-the-duplicate contract as
// RedisLocker within one process. Entries are removed on release and any
// expired leftovers are pruned on the next Acquire, so the map never
// outgrows the set of identities currently mid-decision.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[int64]time.Time
	now  func() time.Time
}

var _ Locker = (*MemoryLocker)(nil)

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		held: make(map[int64]time.Time),
		now:  time.Now,
	}
}

func (l *MemoryLocker) Acquire(ctx context.Context, chatID int64) (func(), error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for id, expiry := range l.held {
		if now.After(expiry) {
			delete(l.held, id)
		}
	}

	if expiry, ok := l.held[chatID]; ok && now.Before(expiry) {
		return nil, ErrIdentityLocked
	}

	l.held[chatID] = now.Add(identityLockTTL)

	release := func() {
		l.mu.Lock()
		delete(l.held, chatID)
		l.mu.Unlock()
	}

	return release, nil
}
