// Package inspect runs the per-block pipeline.
// Flow: trace source → swap extraction → sandwich detection → storage
package inspect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mev-inspector/internal/domain"
	"mev-inspector/internal/ingestion"
	"mev-inspector/internal/observability"
	"mev-inspector/internal/sandwich"
	"mev-inspector/internal/storage"
	"mev-inspector/internal/swaps"
)

// DefaultWorkers bounds parallel block inspection when Options.Workers is zero.
const DefaultWorkers = 4

// Inspector coordinates inspection of a block range.
type Inspector struct {
	source    ingestion.TraceSource
	extractor *swaps.Extractor
	detector  *sandwich.Detector

	// Stores
	sandwichStore storage.SandwichStore
	swapStore     storage.SwapStore
	blockStore    storage.BlockStore

	workers     int
	skipMissing bool
	logger      *zap.SugaredLogger
	metrics     *observability.Metrics
}

// Options for creating an Inspector.
type Options struct {
	Source    ingestion.TraceSource
	Extractor *swaps.Extractor
	Detector  *sandwich.Detector

	// Required stores
	SandwichStore storage.SandwichStore
	SwapStore     storage.SwapStore
	BlockStore    storage.BlockStore

	Workers int // Default: DefaultWorkers
	// SkipMissing tolerates blocks the source does not have.
	SkipMissing bool
	Logger      *zap.SugaredLogger
	Metrics     *observability.Metrics
}

// New creates a new Inspector.
func New(opts Options) *Inspector {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Inspector{
		source:        opts.Source,
		extractor:     opts.Extractor,
		detector:      opts.Detector,
		sandwichStore: opts.SandwichStore,
		swapStore:     opts.SwapStore,
		blockStore:    opts.BlockStore,
		workers:       workers,
		skipMissing:   opts.SkipMissing,
		logger:        logger,
		metrics:       opts.Metrics,
	}
}

// BlockResult summarises one inspected block.
type BlockResult struct {
	BlockNumber uint64
	Traces      int
	Swaps       int
	Sandwiches  int
	Missing     bool
}

// RangeResult contains totals for an inspected range.
type RangeResult struct {
	Blocks     int
	Missing    int
	Swaps      int
	Sandwiches int
}

// InspectBlock runs the full pipeline for one block and replaces its stored results.
func (i *Inspector) InspectBlock(ctx context.Context, number uint64) (*BlockResult, error) {
	start := time.Now()
	result, err := i.inspectBlock(ctx, number)

	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case result.Missing:
		status = "missing"
	}
	i.metrics.RecordBlockInspected(status, time.Since(start).Seconds())

	return result, err
}

func (i *Inspector) inspectBlock(ctx context.Context, number uint64) (*BlockResult, error) {
	block, err := i.source.Block(ctx, number)
	if err != nil {
		if i.skipMissing && errors.Is(err, ingestion.ErrBlockNotFound) {
			i.logger.Warnw("block missing from source", "block", number)
			return &BlockResult{BlockNumber: number, Missing: true}, nil
		}
		return nil, fmt.Errorf("load block %d: %w", number, err)
	}

	found := i.extractor.Extract(block.Traces)
	sandwiches := i.detector.Detect(ctx, found)

	if err := i.replace(ctx, block, found, sandwiches); err != nil {
		return nil, fmt.Errorf("store block %d: %w", number, err)
	}

	i.logger.Debugw("block inspected",
		"block", number,
		"traces", len(block.Traces),
		"swaps", len(found),
		"sandwiches", len(sandwiches),
	)

	return &BlockResult{
		BlockNumber: number,
		Traces:      len(block.Traces),
		Swaps:       len(found),
		Sandwiches:  len(sandwiches),
	}, nil
}

// replace deletes the block's previous results, then writes the new ones.
func (i *Inspector) replace(ctx context.Context, block *domain.Block, found []*domain.Swap, sandwiches []*domain.Sandwich) error {
	after, before := block.Number, block.Number+1

	if err := i.sandwichStore.DeleteByBlockRange(ctx, after, before); err != nil {
		return err
	}
	if err := i.swapStore.DeleteByBlockRange(ctx, after, before); err != nil {
		return err
	}
	if err := i.blockStore.DeleteByBlockRange(ctx, after, before); err != nil {
		return err
	}

	if !block.Timestamp.IsZero() {
		if err := i.blockStore.Insert(ctx, block.Number, block.Timestamp); err != nil {
			return err
		}
	}
	if err := i.swapStore.InsertBulk(ctx, found); err != nil {
		return err
	}
	return i.sandwichStore.InsertBulk(ctx, sandwiches)
}

// InspectRange inspects blocks in [from, to) with bounded parallelism.
// The first failing block cancels the rest.
func (i *Inspector) InspectRange(ctx context.Context, from, to uint64) (*RangeResult, error) {
	if to < from {
		return nil, fmt.Errorf("invalid block range [%d, %d)", from, to)
	}

	results := make([]*BlockResult, to-from)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.workers)

	for n := from; n < to; n++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := i.InspectBlock(gctx, n)
			if err != nil {
				return err
			}
			results[n-from] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	total := &RangeResult{}
	for _, res := range results {
		if res == nil {
			continue
		}
		total.Blocks++
		if res.Missing {
			total.Missing++
		}
		total.Swaps += res.Swaps
		total.Sandwiches += res.Sandwiches
	}

	i.logger.Infow("range inspected",
		"from", from,
		"to", to,
		"blocks", total.Blocks,
		"missing", total.Missing,
		"swaps", total.Swaps,
		"sandwiches", total.Sandwiches,
	)
	return total, nil
}
