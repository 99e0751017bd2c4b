package tokens

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mev-inspector/internal/domain"
	"mev-inspector/internal/storage"
	"mev-inspector/internal/storage/memory"
)

type countingFetcher struct {
	calls    atomic.Int32
	decimals int
	err      error
	delay    time.Duration
}

func (f *countingFetcher) Decimals(context.Context, common.Address) (int, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.decimals, f.err
}

var weth = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")

func TestCache_SingleChainFetch(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenStore()
	fetcher := &countingFetcher{decimals: 18}
	cache := NewCache(store, fetcher, nil, nil)

	for i := 0; i < 5; i++ {
		token, err := cache.Get(ctx, weth)
		require.NoError(t, err)
		assert.Equal(t, 18, token.Decimals)
	}

	assert.Equal(t, int32(1), fetcher.calls.Load())

	persisted, err := store.GetByAddress(ctx, weth)
	require.NoError(t, err)
	assert.Equal(t, 18, persisted.Decimals)
}

func TestCache_ConcurrentColdLookups(t *testing.T) {
	ctx := context.Background()
	fetcher := &countingFetcher{decimals: 6, delay: 20 * time.Millisecond}
	cache := NewCache(memory.NewTokenStore(), fetcher, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := cache.Get(ctx, weth)
			assert.NoError(t, err)
			if token != nil {
				assert.Equal(t, 6, token.Decimals)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load())
	assert.Equal(t, 1, cache.Len())
}

func TestCache_StoreHitSkipsChain(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenStore()
	require.NoError(t, store.Insert(ctx, &domain.Token{Address: weth, Decimals: 18}))

	fetcher := &countingFetcher{decimals: 99}
	cache := NewCache(store, fetcher, nil, nil)

	token, err := cache.Get(ctx, weth)
	require.NoError(t, err)
	assert.Equal(t, 18, token.Decimals)
	assert.Zero(t, fetcher.calls.Load())
}

func TestCache_ChainFailureIsUnknown(t *testing.T) {
	ctx := context.Background()
	store := memory.NewTokenStore()
	fetcher := &countingFetcher{err: errors.New("execution reverted")}
	cache := NewCache(store, fetcher, nil, nil)

	_, err := cache.Get(ctx, weth)
	assert.ErrorIs(t, err, ErrUnknownToken)
	assert.ErrorIs(t, err, ErrChainFetch)

	_, err = store.GetByAddress(ctx, weth)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Failures are not cached; a later lookup retries.
	fetcher.err = nil
	fetcher.decimals = 18
	token, err := cache.Get(ctx, weth)
	require.NoError(t, err)
	assert.Equal(t, 18, token.Decimals)
}

func TestCache_OfflineFetcher(t *testing.T) {
	cache := NewCache(memory.NewTokenStore(), nil, nil, nil)

	_, err := cache.Get(context.Background(), weth)
	assert.ErrorIs(t, err, ErrUnknownToken)
	assert.ErrorIs(t, err, ErrNoChainAccess)
}

func TestCache_OfflineIsNotChainFailure(t *testing.T) {
	cache := NewCache(memory.NewTokenStore(), OfflineFetcher{}, nil, nil)

	_, err := cache.Get(context.Background(), weth)
	assert.False(t, errors.Is(err, ErrChainFetch))
}
