package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Map size above which closed windows are pruned on the next increment.
const pruneThreshold = 1000

type memoryEntry struct {
	count     int64
	windowEnd time.Time
}

// MemoryStore keeps counters in process memory. Suitable for a single
// instance; counters are lost on restart and not shared across replicas.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry

	now func() time.Time
}

// NewMemoryStore constructs an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	e, ok := s.entries[key]
	if !ok || !now.Before(e.windowEnd) {
		e = &memoryEntry{count: 0, windowEnd: now.Add(window)}
		s.entries[key] = e
	}
	e.count++

	if len(s.entries) > pruneThreshold {
		s.prune(now, window)
	}

	return e.count, e.windowEnd.Sub(now), nil
}

// prune drops entries whose window closed long enough ago that they can no
// longer affect any decision.
func (s *MemoryStore) prune(now time.Time, window time.Duration) {
	cutoff := now.Add(-2 * window)
	for key, e := range s.entries {
		if e.windowEnd.Before(cutoff) {
			delete(s.entries, key)
		}
	}
}
