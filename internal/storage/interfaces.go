package storage

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"mev-inspector/internal/domain"
)

// SandwichFilter selects sandwiches for fetch and count. Zero-valued fields do not filter.
type SandwichFilter struct {
	// MissingUSD selects sandwiches whose fiat profit is not yet known.
	MissingUSD bool
	// MissingDecimal selects sandwiches whose decimal profit is not yet known.
	MissingDecimal bool
	// FromBlock and ToBlock bound block_number inclusively when non-zero.
	FromBlock uint64
	ToBlock   uint64
	// ProfitToken restricts to one profit token when set.
	ProfitToken *common.Address
}

// Matches reports whether s satisfies the filter.
func (f SandwichFilter) Matches(s *domain.Sandwich) bool {
	if f.MissingUSD && s.ProfitAmountUSD != nil {
		return false
	}
	if f.MissingDecimal && s.ProfitAmountDecimal != nil {
		return false
	}
	if f.FromBlock != 0 && s.BlockNumber < f.FromBlock {
		return false
	}
	if f.ToBlock != 0 && s.BlockNumber > f.ToBlock {
		return false
	}
	if f.ProfitToken != nil && s.ProfitTokenAddress != *f.ProfitToken {
		return false
	}
	return true
}

// SandwichStore provides access to sandwiches and their sandwiched swaps.
type SandwichStore interface {
	// InsertBulk adds multiple sandwiches atomically. Fails entire batch on any duplicate id.
	InsertBulk(ctx context.Context, sandwiches []*domain.Sandwich) error

	// UpdateProfits writes decimal and USD profit for existing sandwiches.
	// No other column is touched. Returns ErrNotFound if an id does not exist.
	UpdateProfits(ctx context.Context, sandwiches []*domain.Sandwich) error

	// Fetch retrieves sandwiches matching filter, ordered by (block_number, id) ASC.
	Fetch(ctx context.Context, filter SandwichFilter, offset, limit int) ([]*domain.Sandwich, error)

	// Count returns the number of sandwiches matching filter.
	Count(ctx context.Context, filter SandwichFilter) (int, error)

	// DeleteByBlockRange removes sandwiches with after <= block_number < before.
	DeleteByBlockRange(ctx context.Context, after, before uint64) error
}

// SwapStore provides access to extracted swaps.
type SwapStore interface {
	// InsertBulk adds multiple swaps atomically.
	// Returns ErrDuplicateKey if (block_number, transaction_hash, trace_address) exists.
	InsertBulk(ctx context.Context, swaps []*domain.Swap) error

	// GetByBlock retrieves all swaps of a block in execution order.
	GetByBlock(ctx context.Context, blockNumber uint64) ([]*domain.Swap, error)

	// DeleteByBlockRange removes swaps with after <= block_number < before.
	DeleteByBlockRange(ctx context.Context, after, before uint64) error
}

// TokenStore provides access to token metadata. Tokens are append-only.
type TokenStore interface {
	// Insert adds a token. Returns ErrDuplicateKey if the address exists.
	Insert(ctx context.Context, t *domain.Token) error

	// GetByAddress retrieves a token. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address common.Address) (*domain.Token, error)
}

// BlockStore provides access to block timestamps.
type BlockStore interface {
	// Insert adds a block. Returns ErrDuplicateKey if the number exists.
	Insert(ctx context.Context, number uint64, timestamp time.Time) error

	// GetTimestamps returns the timestamps of the requested blocks that exist.
	GetTimestamps(ctx context.Context, numbers []uint64) (map[uint64]time.Time, error)

	// DeleteByBlockRange removes blocks with after <= block_number < before.
	DeleteByBlockRange(ctx context.Context, after, before uint64) error
}

// PriceStore provides access to fiat price series.
type PriceStore interface {
	// InsertBulk adds multiple prices. Fails entire batch on duplicate (token, timestamp).
	InsertBulk(ctx context.Context, prices []*domain.Price) error

	// GetByTokens retrieves the series of each requested token, ordered by timestamp ASC.
	// Tokens without prices are absent from the result.
	GetByTokens(ctx context.Context, tokens []common.Address) (map[common.Address][]*domain.Price, error)
}
