package quota

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the default in-process Store. All mutation happens under
// one mutex so two concurrent increments for the same key can never both
// observe the same count.
type MemoryStore struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	count int64
	reset time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*bucket), now: time.Now}
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || !now.Before(b.reset) {
		b = &bucket{reset: now.Truncate(window).Add(window)}
		s.buckets[key] = b
	}
	b.count++

	s.sweepLocked(now)
	return b.count, b.reset.Sub(now), nil
}

// sweepLocked drops elapsed buckets at most once a minute so the map does
// not grow with one entry per client forever.
func (s *MemoryStore) sweepLocked(now time.Time) {
	if now.Sub(s.lastSweep) < time.Minute {
		return
	}
	s.lastSweep = now
	for k, b := range s.buckets {
		if !now.Before(b.reset) {
			delete(s.buckets, k)
		}
	}
}
