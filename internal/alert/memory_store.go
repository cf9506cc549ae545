package alert

import (
	"context"
	"sort"
	"sync"
	"time"
)

const DefaultMaxEntries = 1000

// MemoryStore keeps records for the process lifetime. Records older than ttl
// (relative to the newest write) are pruned on Put, and the oldest record is
// evicted once maxEntries is exceeded. ttl <= 0 disables age pruning.
type MemoryStore struct {
	mu         sync.Mutex
	records    map[string]Record
	ttl        time.Duration
	maxEntries int
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration, maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{
		records:    make(map[string]Record),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	return rec, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Key] = rec
	if s.ttl > 0 {
		cutoff := rec.SentAt.Add(-s.ttl)
		for k, r := range s.records {
			if r.SentAt.Before(cutoff) {
				delete(s.records, k)
			}
		}
	}
	for len(s.records) > s.maxEntries {
		s.evictOldestLocked()
	}
	return nil
}

func (s *MemoryStore) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
		first     = true
	)
	for k, r := range s.records {
		if first || r.SentAt.Before(oldestAt) {
			oldestKey, oldestAt, first = k, r.SentAt, false
		}
	}
	delete(s.records, oldestKey)
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]Record, error) {
	s.mu.Lock()
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *MemoryStore) Close() error { return nil }
