package memory

import (
	"context"
	"sort"
	"sync"

	"mev-inspector/internal/domain"
	"mev-inspector/internal/storage"
)

// SandwichStore is an in-memory implementation of storage.SandwichStore.
type SandwichStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Sandwich // keyed by id
}

// NewSandwichStore creates a new in-memory sandwich store.
func NewSandwichStore() *SandwichStore {
	return &SandwichStore{
		data: make(map[string]*domain.Sandwich),
	}
}

// Compile-time interface check.
var _ storage.SandwichStore = (*SandwichStore)(nil)

// InsertBulk adds multiple sandwiches atomically. Fails entire batch on any duplicate id.
func (s *SandwichStore) InsertBulk(_ context.Context, sandwiches []*domain.Sandwich) error {
	if len(sandwiches) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(sandwiches))
	for _, sw := range sandwiches {
		if sw == nil || sw.ID == "" || sw.FrontrunSwap == nil || sw.BackrunSwap == nil {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[sw.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[sw.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[sw.ID] = struct{}{}
	}

	for _, sw := range sandwiches {
		s.data[sw.ID] = cloneSandwich(sw)
	}
	return nil
}

// UpdateProfits writes decimal and USD profit for existing sandwiches.
func (s *SandwichStore) UpdateProfits(_ context.Context, sandwiches []*domain.Sandwich) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sw := range sandwiches {
		if _, exists := s.data[sw.ID]; !exists {
			return storage.ErrNotFound
		}
	}
	for _, sw := range sandwiches {
		stored := s.data[sw.ID]
		stored.ProfitAmountDecimal = cloneDecimal(sw.ProfitAmountDecimal)
		stored.ProfitAmountUSD = cloneDecimal(sw.ProfitAmountUSD)
	}
	return nil
}

// Fetch retrieves sandwiches matching filter, ordered by (block_number, id) ASC.
func (s *SandwichStore) Fetch(_ context.Context, filter storage.SandwichFilter, offset, limit int) ([]*domain.Sandwich, error) {
	if offset < 0 || limit < 0 {
		return nil, storage.ErrInvalidInput
	}

	matched := s.matching(filter)
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

// Count returns the number of sandwiches matching filter.
func (s *SandwichStore) Count(_ context.Context, filter storage.SandwichFilter) (int, error) {
	return len(s.matching(filter)), nil
}

// DeleteByBlockRange removes sandwiches with after <= block_number < before.
func (s *SandwichStore) DeleteByBlockRange(_ context.Context, after, before uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sw := range s.data {
		if sw.BlockNumber >= after && sw.BlockNumber < before {
			delete(s.data, id)
		}
	}
	return nil
}

func (s *SandwichStore) matching(filter storage.SandwichFilter) []*domain.Sandwich {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Sandwich
	for _, sw := range s.data {
		if filter.Matches(sw) {
			result = append(result, cloneSandwich(sw))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].BlockNumber != result[j].BlockNumber {
			return result[i].BlockNumber < result[j].BlockNumber
		}
		return result[i].ID < result[j].ID
	})
	return result
}
