package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"mev-inspector/internal/domain"
	"mev-inspector/internal/storage"
)

// PriceStore is an in-memory implementation of storage.PriceStore.
type PriceStore struct {
	mu   sync.RWMutex
	data map[common.Address][]*domain.Price // sorted by timestamp
}

// NewPriceStore creates a new in-memory price store.
func NewPriceStore() *PriceStore {
	return &PriceStore{
		data: make(map[common.Address][]*domain.Price),
	}
}

// Compile-time interface check.
var _ storage.PriceStore = (*PriceStore)(nil)

// InsertBulk adds multiple prices. Fails entire batch on duplicate (token, timestamp).
func (s *PriceStore) InsertBulk(_ context.Context, prices []*domain.Price) error {
	if len(prices) == 0 {
		return nil
	}

	type key struct {
		token common.Address
		ts    int64
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[key]struct{}, len(prices))
	for _, p := range prices {
		if p == nil {
			return storage.ErrInvalidInput
		}
		k := key{p.TokenAddress, p.Timestamp.UnixMilli()}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		for _, existing := range s.data[p.TokenAddress] {
			if existing.Timestamp.UnixMilli() == k.ts {
				return storage.ErrDuplicateKey
			}
		}
	}

	touched := make(map[common.Address]struct{})
	for _, p := range prices {
		copy := *p
		s.data[p.TokenAddress] = append(s.data[p.TokenAddress], &copy)
		touched[p.TokenAddress] = struct{}{}
	}
	for token := range touched {
		series := s.data[token]
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].Timestamp.Before(series[j].Timestamp)
		})
	}
	return nil
}

// GetByTokens retrieves the series of each requested token, ordered by timestamp ASC.
func (s *PriceStore) GetByTokens(_ context.Context, tokens []common.Address) (map[common.Address][]*domain.Price, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[common.Address][]*domain.Price)
	for _, token := range tokens {
		series, ok := s.data[token]
		if !ok {
			continue
		}
		out := make([]*domain.Price, len(series))
		for i, p := range series {
			copy := *p
			out[i] = &copy
		}
		result[token] = out
	}
	return result, nil
}
