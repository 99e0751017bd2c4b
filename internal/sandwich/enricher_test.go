package sandwich

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mev-inspector/internal/domain"
	"mev-inspector/internal/storage"
	"mev-inspector/internal/storage/memory"
	"mev-inspector/internal/tokens"
)

// countingSandwichStore records UpdateProfits calls.
type countingSandwichStore struct {
	*memory.SandwichStore
	updateCalls int
	updatedRows int
}

func (s *countingSandwichStore) UpdateProfits(ctx context.Context, sandwiches []*domain.Sandwich) error {
	s.updateCalls++
	s.updatedRows += len(sandwiches)
	return s.SandwichStore.UpdateProfits(ctx, sandwiches)
}

type enrichFixture struct {
	sandwiches *countingSandwichStore
	blocks     *memory.BlockStore
	prices     *memory.PriceStore
}

func newEnrichFixture(t *testing.T) *enrichFixture {
	t.Helper()
	return &enrichFixture{
		sandwiches: &countingSandwichStore{SandwichStore: memory.NewSandwichStore()},
		blocks:     memory.NewBlockStore(),
		prices:     memory.NewPriceStore(),
	}
}

func (f *enrichFixture) addSandwich(t *testing.T, id string, block uint64, token common.Address, profit *big.Int) {
	t.Helper()
	s := &domain.Sandwich{
		ID:                 id,
		BlockNumber:        block,
		SandwicherAddress:  attacker,
		FrontrunSwap:       swap(0, attacker, token, tokenB, e(1, 18), e(1, 6)),
		BackrunSwap:        swap(2, attacker, tokenB, token, e(1, 6), e(1, 18)),
		SandwichedSwaps:    []*domain.Swap{swap(1, victim, token, tokenB, e(1, 18), e(1, 6))},
		ProfitTokenAddress: token,
		ProfitAmount:       profit,
	}
	require.NoError(t, f.sandwiches.InsertBulk(context.Background(), []*domain.Sandwich{s}))
}

func (f *enrichFixture) enricher(resolver TokenResolver, pageSize int) *Enricher {
	return NewEnricher(f.sandwiches, f.blocks, f.prices, resolver, EnricherOptions{PageSize: pageSize})
}

func TestEnricher_Run(t *testing.T) {
	ctx := context.Background()
	f := newEnrichFixture(t)

	require.NoError(t, f.blocks.Insert(ctx, 100, time.Unix(1_700_000_100, 0)))
	require.NoError(t, f.prices.InsertBulk(ctx, []*domain.Price{
		{TokenAddress: tokenA, Timestamp: time.Unix(1_700_000_000, 0), USDPrice: decimal.RequireFromString("1500")},
		{TokenAddress: tokenA, Timestamp: time.Unix(1_700_000_090, 0), USDPrice: decimal.RequireFromString("2000")},
		{TokenAddress: tokenA, Timestamp: time.Unix(1_700_000_200, 0), USDPrice: decimal.RequireFromString("2500")},
	}))
	// 1.2345678 tokens of A
	f.addSandwich(t, "s1", 100, tokenA, big.NewInt(1_234_567_800_000_000_000))

	result, err := f.enricher(testTokens, 0).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Backlog)
	assert.Equal(t, 1, result.Updated)
	assert.Zero(t, result.Skipped)

	all, err := f.sandwiches.Fetch(ctx, storage.SandwichFilter{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].ProfitAmountDecimal)
	require.NotNil(t, all[0].ProfitAmountUSD)
	assert.Equal(t, "1.234568", all[0].ProfitAmountDecimal.String())
	assert.Equal(t, "2469.136", all[0].ProfitAmountUSD.String())
}

func TestEnricher_SkipsAndPaginates(t *testing.T) {
	ctx := context.Background()
	f := newEnrichFixture(t)

	require.NoError(t, f.blocks.Insert(ctx, 100, time.Unix(1_700_000_000, 0)))
	require.NoError(t, f.prices.InsertBulk(ctx, []*domain.Price{
		{TokenAddress: tokenA, Timestamp: time.Unix(1_700_000_000, 0), USDPrice: decimal.NewFromInt(2)},
	}))

	// Interleave rows that cannot be enriched with rows that can, across several pages.
	for i := 0; i < 7; i++ {
		f.addSandwich(t, fmt.Sprintf("ok-%d", i), 100, tokenA, e(int64(i+1), 18))
	}
	f.addSandwich(t, "no-block", 101, tokenA, e(1, 18))
	f.addSandwich(t, "no-price", 100, tokenB, e(1, 6))
	f.addSandwich(t, "no-token", 100, unknownTok, e(1, 18))

	result, err := f.enricher(testTokens, 3).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 10, result.Backlog)
	assert.Equal(t, 7, result.Updated)
	assert.Equal(t, 3, result.Skipped)
	assert.Equal(t, 1, result.ByKind[KindMissingBlock])
	assert.Equal(t, 1, result.ByKind[KindMissingPrice])
	assert.Equal(t, 1, result.ByKind[KindUnresolvedToken])

	remaining, err := f.sandwiches.Count(ctx, storage.SandwichFilter{MissingUSD: true})
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)
}

func TestEnricher_IdempotentWithoutNewData(t *testing.T) {
	ctx := context.Background()
	f := newEnrichFixture(t)

	require.NoError(t, f.blocks.Insert(ctx, 100, time.Unix(1_700_000_000, 0)))
	f.addSandwich(t, "a", 100, tokenA, e(1, 18))
	f.addSandwich(t, "b", 100, tokenA, e(2, 18))

	for run := 0; run < 2; run++ {
		result, err := f.enricher(testTokens, 1).Run(ctx)
		require.NoError(t, err)
		assert.Zero(t, result.Updated)
		assert.Equal(t, 2, result.ByKind[KindMissingPrice])
	}

	assert.Zero(t, f.sandwiches.updateCalls, "no spurious writes")
	count, err := f.sandwiches.Count(ctx, storage.SandwichFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, count, "no duplicated rows")

	// Price data arrives; the next run picks the backlog up.
	require.NoError(t, f.prices.InsertBulk(ctx, []*domain.Price{
		{TokenAddress: tokenA, Timestamp: time.Unix(1_700_000_000, 0), USDPrice: decimal.NewFromInt(3)},
	}))
	result, err := f.enricher(testTokens, 1).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)

	// Already enriched rows are not rewritten.
	calls := f.sandwiches.updateCalls
	result, err = f.enricher(testTokens, 1).Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Backlog)
	assert.Equal(t, calls, f.sandwiches.updateCalls)
}

type failingResolver struct{}

func (failingResolver) Get(_ context.Context, address common.Address) (*domain.Token, error) {
	return nil, fmt.Errorf("%w %s: %w", tokens.ErrChainFetch, address.Hex(), errors.New("dial tcp: timeout"))
}

func TestEnricher_ChainFailureKind(t *testing.T) {
	ctx := context.Background()
	f := newEnrichFixture(t)
	f.addSandwich(t, "a", 100, tokenA, e(1, 18))

	result, err := f.enricher(failingResolver{}, 0).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ByKind[KindChainFetchFailure])
}

func TestEnricher_StopsBetweenPages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newEnrichFixture(t)
	f.addSandwich(t, "a", 100, tokenA, e(1, 18))

	result, err := f.enricher(testTokens, 0).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Zero(t, result.Pages)
}

func TestValuation_Rounding(t *testing.T) {
	amount, usd := Valuation(big.NewInt(-19_999_995), 8, decimal.RequireFromString("3.333333"))
	assert.Equal(t, "-0.2", amount.String())
	assert.Equal(t, "-0.666667", usd.String())
}

func TestError_Retryable(t *testing.T) {
	assert.False(t, (&Error{Kind: KindUnresolvedToken}).Retryable())
	assert.True(t, (&Error{Kind: KindChainFetchFailure}).Retryable())
	assert.True(t, (&Error{Kind: KindMissingPrice}).Retryable())
	assert.True(t, (&Error{Kind: KindMissingBlock}).Retryable())
}
