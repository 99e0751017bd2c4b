package sandwich

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"mev-inspector/internal/domain"
	"mev-inspector/internal/lookup"
	"mev-inspector/internal/observability"
	"mev-inspector/internal/storage"
)

// DefaultPageSize is the number of sandwiches loaded per enrichment page.
const DefaultPageSize = 100

// profitPlaces is the number of decimal places kept for decimal and fiat profit.
const profitPlaces = 6

// EnricherOptions configures an Enricher.
type EnricherOptions struct {
	// PageSize bounds the number of sandwiches held in memory. Zero uses DefaultPageSize.
	PageSize int
	// Filter narrows the backlog. MissingUSD is always applied.
	Filter  storage.SandwichFilter
	Logger  *zap.SugaredLogger
	Metrics *observability.Metrics
}

// Enricher attaches decimal and USD profit to stored sandwiches that lack them.
type Enricher struct {
	sandwiches storage.SandwichStore
	blocks     storage.BlockStore
	prices     storage.PriceStore
	tokens     TokenResolver

	pageSize int
	filter   storage.SandwichFilter
	logger   *zap.SugaredLogger
	metrics  *observability.Metrics
}

// NewEnricher creates an Enricher.
func NewEnricher(sandwiches storage.SandwichStore, blocks storage.BlockStore, prices storage.PriceStore, tokens TokenResolver, opts EnricherOptions) *Enricher {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	opts.Filter.MissingUSD = true

	return &Enricher{
		sandwiches: sandwiches,
		blocks:     blocks,
		prices:     prices,
		tokens:     tokens,
		pageSize:   opts.PageSize,
		filter:     opts.Filter,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// EnrichResult summarizes one enrichment run.
type EnrichResult struct {
	Backlog int
	Updated int
	Skipped int
	Pages   int
	ByKind  map[ErrorKind]int
}

// Run processes the backlog page by page until it is exhausted or ctx is done.
//
// Updated sandwiches leave the backlog filter, so the page offset advances only
// by the number of sandwiches skipped so far. Skipped sandwiches stay in the
// backlog for the next run. Cancellation is checked between pages.
func (e *Enricher) Run(ctx context.Context) (*EnrichResult, error) {
	backlog, err := e.sandwiches.Count(ctx, e.filter)
	if err != nil {
		return nil, fmt.Errorf("count sandwiches: %w", err)
	}

	result := &EnrichResult{Backlog: backlog, ByKind: make(map[ErrorKind]int)}
	e.logger.Infow("start sandwich enrichment", "backlog", backlog, "page_size", e.pageSize)

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		page, err := e.sandwiches.Fetch(ctx, e.filter, result.Skipped, e.pageSize)
		if err != nil {
			return result, fmt.Errorf("fetch sandwiches: %w", err)
		}
		if len(page) == 0 {
			break
		}

		updates, err := e.enrichPage(ctx, page, result)
		if err != nil {
			return result, err
		}
		if len(updates) > 0 {
			if err := e.sandwiches.UpdateProfits(ctx, updates); err != nil {
				return result, fmt.Errorf("update sandwiches: %w", err)
			}
		}

		result.Pages++
		result.Updated += len(updates)
		e.metrics.RecordEnrichmentPage(len(updates))
		e.logger.Infow("enriched sandwich page",
			"processed", result.Updated+result.Skipped,
			"backlog", backlog,
			"updated", result.Updated,
			"skipped", result.Skipped,
		)
	}

	return result, nil
}

// enrichPage joins a page against blocks, prices and tokens.
// Per-sandwich failures are counted in result and never returned.
func (e *Enricher) enrichPage(ctx context.Context, page []*domain.Sandwich, result *EnrichResult) ([]*domain.Sandwich, error) {
	var tokenList []common.Address
	var blockList []uint64
	seenTokens := make(map[common.Address]struct{})
	seenBlocks := make(map[uint64]struct{})
	for _, s := range page {
		if _, ok := seenTokens[s.ProfitTokenAddress]; !ok {
			seenTokens[s.ProfitTokenAddress] = struct{}{}
			tokenList = append(tokenList, s.ProfitTokenAddress)
		}
		if _, ok := seenBlocks[s.BlockNumber]; !ok {
			seenBlocks[s.BlockNumber] = struct{}{}
			blockList = append(blockList, s.BlockNumber)
		}
	}

	prices, err := e.prices.GetByTokens(ctx, tokenList)
	if err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}
	timestamps, err := e.blocks.GetTimestamps(ctx, blockList)
	if err != nil {
		return nil, fmt.Errorf("load block timestamps: %w", err)
	}

	var updates []*domain.Sandwich
	for _, s := range page {
		enriched, serr := e.enrichOne(ctx, s, timestamps, prices)
		if serr != nil {
			result.Skipped++
			result.ByKind[serr.Kind]++
			e.metrics.RecordEnrichmentSkipped(string(serr.Kind))
			e.logger.Warnw("skip sandwich enrichment",
				"sandwich", s.ID,
				"block", s.BlockNumber,
				"token", s.ProfitTokenAddress.Hex(),
				"kind", string(serr.Kind),
				"retryable", serr.Retryable(),
				"error", serr.Err,
			)
			continue
		}
		updates = append(updates, enriched)
	}
	return updates, nil
}

func (e *Enricher) enrichOne(
	ctx context.Context,
	s *domain.Sandwich,
	timestamps map[uint64]time.Time,
	prices map[common.Address][]*domain.Price,
) (*domain.Sandwich, *Error) {
	token, err := e.tokens.Get(ctx, s.ProfitTokenAddress)
	if err != nil {
		return nil, tokenError(s.ID, err)
	}

	ts, ok := timestamps[s.BlockNumber]
	if !ok {
		return nil, &Error{Kind: KindMissingBlock, SandwichID: s.ID, Err: fmt.Errorf("no timestamp for block %d", s.BlockNumber)}
	}

	price, err := lookup.ClosestPrice(ts, prices[s.ProfitTokenAddress])
	if err != nil {
		return nil, priceError(s.ID, err)
	}

	amount, usd := Valuation(s.ProfitAmount, token.Decimals, price.USDPrice)
	return s.WithProfitValuation(amount, usd), nil
}

// Valuation converts a raw profit to token units and fiat, both rounded to six places.
// The fiat value is computed from the rounded token amount.
func Valuation(raw *big.Int, decimals int, usdPrice decimal.Decimal) (amount, usd decimal.Decimal) {
	if raw == nil {
		return decimal.Zero, decimal.Zero
	}
	amount = decimal.NewFromBigInt(raw, -int32(decimals)).Round(profitPlaces)
	usd = amount.Mul(usdPrice).Round(profitPlaces)
	return amount, usd
}
