package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"mev-inspector/internal/domain"
	"mev-inspector/internal/storage"
)

// SwapStore is an in-memory implementation of storage.SwapStore.
type SwapStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Swap // keyed by composite key
}

// NewSwapStore creates a new in-memory swap store.
func NewSwapStore() *SwapStore {
	return &SwapStore{
		data: make(map[string]*domain.Swap),
	}
}

// Compile-time interface check.
var _ storage.SwapStore = (*SwapStore)(nil)

// swapKey generates a unique key for a swap.
func swapKey(s *domain.Swap) string {
	return fmt.Sprintf("%d|%s|%s", s.BlockNumber, s.TransactionHash.Hex(), s.TraceAddress.String())
}

// InsertBulk adds multiple swaps atomically. Fails entire batch on any duplicate.
func (s *SwapStore) InsertBulk(_ context.Context, swaps []*domain.Swap) error {
	if len(swaps) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(swaps))
	for _, swap := range swaps {
		if swap == nil {
			return storage.ErrInvalidInput
		}
		key := swapKey(swap)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, swap := range swaps {
		s.data[swapKey(swap)] = cloneSwap(swap)
	}
	return nil
}

// GetByBlock retrieves all swaps of a block in execution order.
func (s *SwapStore) GetByBlock(_ context.Context, blockNumber uint64) ([]*domain.Swap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Swap
	for _, swap := range s.data {
		if swap.BlockNumber == blockNumber {
			result = append(result, cloneSwap(swap))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return domain.CompareSwaps(result[i], result[j]) < 0
	})
	return result, nil
}

// DeleteByBlockRange removes swaps with after <= block_number < before.
func (s *SwapStore) DeleteByBlockRange(_ context.Context, after, before uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, swap := range s.data {
		if swap.BlockNumber >= after && swap.BlockNumber < before {
			delete(s.data, key)
		}
	}
	return nil
}
