package idempotency

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	record    Record
	expiresAt time.Time
}

// MemoryStore keeps records in process memory for deployments without Redis.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]memoryEntry
	locks   map[string]time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]memoryEntry),
		locks:   make(map[string]time.Time),
	}
}

func (s *MemoryStore) Lock(ctx context.Context, key string, lockTTL time.Duration) (bool, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if expiry, ok := s.locks[key]; ok && now.Before(expiry) {
		return false, nil
	}

	s.locks[key] = now.Add(lockTTL)
	return true, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.records[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.records, key)
		return nil, nil
	}

	record := entry.record
	return &record, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, record *Record, ttl time.Duration) error {
	if record == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = memoryEntry{
		record:    *record,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) ReleaseLock(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locks, key)
	return nil
}

// sweep drops expired records and stale locks. Every update produces a
// fresh key, so without sweeping the record map grows for the process
// lifetime; the Cleaner calls this on a schedule.
func (s *MemoryStore) sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.records {
		if now.After(entry.expiresAt) {
			delete(s.records, key)
			removed++
		}
	}

	for key, expiry := range s.locks {
		if now.After(expiry) {
			delete(s.locks, key)
		}
	}

	return removed
}
