package counter

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory. Used in tests and
// single-node deployments; windows expire lazily on access.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	count     int64
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// SetClock overrides the time source. Test hook.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// IncrementAndGet atomically increments the counter for key.
func (s *MemoryStore) IncrementAndGet(_ context.Context, key string, windowExpiry time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	ent, ok := s.entries[key]
	if !ok || now.After(ent.expiresAt) {
		ent = &memoryEntry{expiresAt: now.Add(windowExpiry)}
		s.entries[key] = ent
	}
	ent.count++
	return ent.count, nil
}

// Get returns the current count without mutating it.
func (s *MemoryStore) Get(_ context.Context, key string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok || s.now().After(ent.expiresAt) {
		return 0, false, nil
	}
	return ent.count, true, nil
}

// TTL returns the remaining window for the key.
func (s *MemoryStore) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ent, ok := s.entries[key]
	if !ok {
		return 0, nil
	}
	ttl := ent.expiresAt.Sub(s.now())
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
