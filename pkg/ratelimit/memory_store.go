package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	count     int
	windowEnd time.Time
}

// MemoryStore is the process-local counter backend. A mutex guards the
// read-increment-write of each bucket so parallel requests for one key
// never undercount. Expired buckets are swept lazily on every hit.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (s *MemoryStore) Hit(_ context.Context, key string, limit int, window time.Duration) (int, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	b, exists := s.buckets[key]
	if !exists || !b.windowEnd.After(now) {
		b = &bucket{count: 1, windowEnd: now.Add(window)}
		s.buckets[key] = b
		return b.count, b.windowEnd.Unix(), nil
	}

	// A full window is rejected without incrementing: the stored count
	// never exceeds the ceiling.
	if b.count >= limit {
		return b.count + 1, b.windowEnd.Unix(), nil
	}

	b.count++
	return b.count, b.windowEnd.Unix(), nil
}

// sweep drops buckets whose window already closed. Caller holds the lock.
func (s *MemoryStore) sweep(now time.Time) {
	for key, b := range s.buckets {
		if !b.windowEnd.After(now) {
			delete(s.buckets, key)
		}
	}
}

// Len reports the live bucket count, for tests and memory monitoring.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}
