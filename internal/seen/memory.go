package seen

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps identifiers in process memory with a bounded lifetime
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates a memory store; ttl <= 0 keeps entries forever
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	cleanup := 10 * time.Minute
	if ttl == gocache.NoExpiration {
		cleanup = 0
	}
	return &MemoryStore{cache: gocache.New(ttl, cleanup)}
}

// Contains reports whether id is present and unexpired
func (s *MemoryStore) Contains(_ context.Context, id string) (bool, error) {
	_, found := s.cache.Get(id)
	return found, nil
}

// Add inserts ids with the default lifetime
func (s *MemoryStore) Add(_ context.Context, ids ...string) error {
	for _, id := range ids {
		s.cache.Set(id, struct{}{}, gocache.DefaultExpiration)
	}
	return nil
}

// Len returns the number of unexpired entries
func (s *MemoryStore) Len() int {
	return s.cache.ItemCount()
}
