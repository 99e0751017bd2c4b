package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"mev-inspector/internal/domain"
	"mev-inspector/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Insert adds a token. Returns ErrDuplicateKey if the address exists.
func (s *TokenStore) Insert(ctx context.Context, t *domain.Token) error {
	if t == nil || t.Decimals < 0 {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO tokens (token_address, decimals) VALUES ($1, $2)`,
		addressParam(t.Address), t.Decimals,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// GetByAddress retrieves a token. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByAddress(ctx context.Context, address common.Address) (*domain.Token, error) {
	t := &domain.Token{Address: address}

	err := s.pool.QueryRow(ctx,
		`SELECT decimals FROM tokens WHERE token_address = $1`,
		addressParam(address),
	).Scan(&t.Decimals)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token: %w", err)
	}
	return t, nil
}
