// Package tokens resolves ERC20 token metadata through an in-memory cache
// backed by storage and, on a cold miss, the chain.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"mev-inspector/internal/domain"
	"mev-inspector/internal/observability"
	"mev-inspector/internal/storage"
)

var (
	// ErrUnknownToken is returned when a token's decimals cannot be resolved.
	ErrUnknownToken = errors.New("unknown token")

	// ErrChainFetch marks an unknown token whose on-chain lookup failed.
	ErrChainFetch = fmt.Errorf("%w: chain fetch failed", ErrUnknownToken)
)

// Cache maps token addresses to Token metadata.
//
// Entries are never evicted or updated. Concurrent first lookups of the same
// address share a single storage read and a single chain fetch.
type Cache struct {
	mu     sync.RWMutex
	tokens map[common.Address]*domain.Token
	group  singleflight.Group

	store   storage.TokenStore
	fetcher DecimalsFetcher
	logger  *zap.SugaredLogger
	metrics *observability.Metrics
}

// NewCache creates a Cache. A nil logger or metrics is allowed.
func NewCache(store storage.TokenStore, fetcher DecimalsFetcher, logger *zap.SugaredLogger, metrics *observability.Metrics) *Cache {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if fetcher == nil {
		fetcher = OfflineFetcher{}
	}
	return &Cache{
		tokens:  make(map[common.Address]*domain.Token),
		store:   store,
		fetcher: fetcher,
		logger:  logger,
		metrics: metrics,
	}
}

// Get returns the token at address.
// Errors wrap ErrUnknownToken; callers should skip the item and carry on.
func (c *Cache) Get(ctx context.Context, address common.Address) (*domain.Token, error) {
	if t, ok := c.cached(address); ok {
		c.metrics.RecordTokenLookup(true)
		return t, nil
	}
	c.metrics.RecordTokenLookup(false)

	v, err, _ := c.group.Do(address.Hex(), func() (any, error) {
		if t, ok := c.cached(address); ok {
			return t, nil
		}
		t, err := c.resolve(ctx, address)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.tokens[address] = t
		c.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	t := *v.(*domain.Token)
	return &t, nil
}

// Len returns the number of cached tokens.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tokens)
}

func (c *Cache) cached(address common.Address) (*domain.Token, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tokens[address]
	if !ok {
		return nil, false
	}
	copy := *t
	return &copy, true
}

// resolve reads the token from storage, falling back to the chain and persisting the result.
func (c *Cache) resolve(ctx context.Context, address common.Address) (*domain.Token, error) {
	t, err := c.store.GetByAddress(ctx, address)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w %s: load: %w", ErrUnknownToken, address.Hex(), err)
	}

	start := time.Now()
	decimals, err := c.fetcher.Decimals(ctx, address)
	c.metrics.RecordChainFetch(time.Since(start).Seconds(), err)
	if errors.Is(err, ErrNoChainAccess) {
		return nil, fmt.Errorf("%w %s: %w", ErrUnknownToken, address.Hex(), err)
	}
	if err != nil {
		c.logger.Warnw("token decimals fetch failed", "token", address.Hex(), "error", err)
		return nil, fmt.Errorf("%w %s: %w", ErrChainFetch, address.Hex(), err)
	}

	t = &domain.Token{Address: address, Decimals: decimals}
	if err := c.store.Insert(ctx, t); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		// Decimals never change, so the fetched value is still served.
		c.logger.Warnw("persist token failed", "token", address.Hex(), "error", err)
	}
	c.logger.Debugw("token resolved", "token", address.Hex(), "decimals", decimals)
	return t, nil
}
