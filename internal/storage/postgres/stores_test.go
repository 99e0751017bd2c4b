package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mev-inspector/internal/domain"
	"mev-inspector/internal/storage"
)

func TestSwapStore_InsertAndGetByBlock(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSwapStore(pool)
	ctx := context.Background()

	swaps := []*domain.Swap{
		testSwap(7, 2, 3),
		testSwap(7, 0, 1, 1),
		testSwap(7, 0, 1, 0, 2),
		testSwap(8, 0, 4),
	}
	swaps[1].Error = "Reverted"
	swaps[1].TransactionEOA = nil
	require.NoError(t, store.InsertBulk(ctx, swaps))

	got, err := store.GetByBlock(ctx, 7)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, domain.TraceAddress{0, 2}, got[0].TraceAddress)
	assert.Equal(t, domain.TraceAddress{1}, got[1].TraceAddress)
	assert.Equal(t, 2, got[2].TransactionPosition)

	assert.Equal(t, "Reverted", got[1].Error)
	assert.Nil(t, got[1].TransactionEOA)
	require.NotNil(t, got[0].TransactionEOA)
	assert.Equal(t, addr(0xee), *got[0].TransactionEOA)
	assert.Equal(t, domain.ProtocolUniswapV2, got[0].Protocol)
	assert.Equal(t, 0, got[0].TokenInAmount.Cmp(swaps[2].TokenInAmount))

	err = store.InsertBulk(ctx, []*domain.Swap{testSwap(7, 2, 3)})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	require.NoError(t, store.DeleteByBlockRange(ctx, 7, 8))
	got, err = store.GetByBlock(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = store.GetByBlock(ctx, 8)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestTokenStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenStore(pool)
	ctx := context.Background()

	_, err := store.GetByAddress(ctx, addr(0xa))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Insert(ctx, &domain.Token{Address: addr(0xa), Decimals: 18}))

	got, err := store.GetByAddress(ctx, addr(0xa))
	require.NoError(t, err)
	assert.Equal(t, 18, got.Decimals)
	assert.Equal(t, addr(0xa), got.Address)

	err = store.Insert(ctx, &domain.Token{Address: addr(0xa), Decimals: 6})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	assert.ErrorIs(t, store.Insert(ctx, &domain.Token{Address: addr(0xb), Decimals: -1}), storage.ErrInvalidInput)
}

func TestBlockStore_Timestamps(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewBlockStore(pool)
	ctx := context.Background()

	ts := time.Date(2021, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(ctx, 100, ts))
	require.NoError(t, store.Insert(ctx, 101, ts.Add(13*time.Second)))
	assert.ErrorIs(t, store.Insert(ctx, 100, ts), storage.ErrDuplicateKey)

	got, err := store.GetTimestamps(ctx, []uint64{100, 101, 102})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[100].Equal(ts))
	assert.True(t, got[101].Equal(ts.Add(13*time.Second)))

	require.NoError(t, store.DeleteByBlockRange(ctx, 100, 101))
	got, err = store.GetTimestamps(ctx, []uint64{100, 101})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
