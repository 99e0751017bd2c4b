package ingestion

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"

	"mev-inspector/internal/domain"
)

// ErrBlockNotFound is returned when a source has no traces for the requested block.
var ErrBlockNotFound = errors.New("block not found")

// TraceSource provides decoded call traces per block.
type TraceSource interface {
	// Block returns the block's timestamp and decoded traces.
	// Traces may be unordered; callers order them with SortTraces.
	Block(ctx context.Context, number uint64) (*domain.Block, error)
}

// HeaderReader is the subset of ethclient.Client used to fill block timestamps.
type HeaderReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}
