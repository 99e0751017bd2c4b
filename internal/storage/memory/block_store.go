package memory

import (
	"context"
	"sync"
	"time"

	"mev-inspector/internal/storage"
)

// BlockStore is an in-memory implementation of storage.BlockStore.
type BlockStore struct {
	mu   sync.RWMutex
	data map[uint64]time.Time
}

// NewBlockStore creates a new in-memory block store.
func NewBlockStore() *BlockStore {
	return &BlockStore{
		data: make(map[uint64]time.Time),
	}
}

// Compile-time interface check.
var _ storage.BlockStore = (*BlockStore)(nil)

// Insert adds a block. Returns ErrDuplicateKey if the number exists.
func (s *BlockStore) Insert(_ context.Context, number uint64, timestamp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[number]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[number] = timestamp
	return nil
}

// GetTimestamps returns the timestamps of the requested blocks that exist.
func (s *BlockStore) GetTimestamps(_ context.Context, numbers []uint64) (map[uint64]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[uint64]time.Time, len(numbers))
	for _, n := range numbers {
		if ts, ok := s.data[n]; ok {
			result[n] = ts
		}
	}
	return result, nil
}

// DeleteByBlockRange removes blocks with after <= number < before.
func (s *BlockStore) DeleteByBlockRange(_ context.Context, after, before uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for n := range s.data {
		if n >= after && n < before {
			delete(s.data, n)
		}
	}
	return nil
}
