package mtimecache

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/cdnurl/internal/domain/cdn"
	"github.com/yanqian/cdnurl/pkg/util"
)

type entry struct {
	mtime     time.Time
	expiresAt time.Time
}

// MemoryStore keeps modification times in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemoryStore constructs a store backed by process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry)}
}

// Get implements cdn.ModTimeCache.
func (s *MemoryStore) Get(_ context.Context, key string) (time.Time, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return time.Time{}, false, nil
	}
	if hasExpired(e.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return time.Time{}, false, nil
	}
	return e.mtime, true, nil
}

// Set stores mtime with an optional TTL.
func (s *MemoryStore) Set(_ context.Context, key string, mtime time.Time, ttl time.Duration) error {
	exp := time.Time{}
	if ttl > 0 {
		exp = util.NowUTC().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{mtime: mtime, expiresAt: exp}
	return nil
}

// Invalidate removes key.
func (s *MemoryStore) Invalidate(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Len reports the number of cached entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(util.NowUTC())
}

var _ cdn.ModTimeCache = (*MemoryStore)(nil)

// NopStore never caches. It backs the "none" cache backend.
type NopStore struct{}

func (NopStore) Get(context.Context, string) (time.Time, bool, error) {
	return time.Time{}, false, nil
}

func (NopStore) Set(context.Context, string, time.Time, time.Duration) error {
	return nil
}

func (NopStore) Invalidate(context.Context, string) error {
	return nil
}

var _ cdn.ModTimeCache = NopStore{}
