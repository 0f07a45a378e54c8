package seen

import (
	"context"
	"io"
)

// LayeredStore puts a memory front over a durable back store
type LayeredStore struct {
	memory *MemoryStore
	back   Store
}

// NewLayeredStore creates a layered store
func NewLayeredStore(memory *MemoryStore, back Store) *LayeredStore {
	return &LayeredStore{memory: memory, back: back}
}

// Contains checks memory first, then the back store
func (s *LayeredStore) Contains(ctx context.Context, id string) (bool, error) {
	if found, _ := s.memory.Contains(ctx, id); found {
		return true, nil
	}

	found, err := s.back.Contains(ctx, id)
	if err != nil {
		return false, err
	}
	if found {
		// Promote to memory
		_ = s.memory.Add(ctx, id)
	}
	return found, nil
}

// Add writes the back store, then memory
func (s *LayeredStore) Add(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.back.Add(ctx, ids...); err != nil {
		return err
	}
	return s.memory.Add(ctx, ids...)
}

// Remember records ids in the memory front only. The durable store is left
// untouched, so a restarted process will see the ids as new again.
func (s *LayeredStore) Remember(ctx context.Context, ids ...string) error {
	return s.memory.Add(ctx, ids...)
}

// Ping checks that the back store is reachable, when it supports a check
func (s *LayeredStore) Ping(ctx context.Context) error {
	if p, ok := s.back.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the back store when it holds a connection
func (s *LayeredStore) Close() error {
	if c, ok := s.back.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
