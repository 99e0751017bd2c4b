package postgres

import (
	"context"
	"fmt"
	"time"

	"mev-inspector/internal/storage"
)

// BlockStore implements storage.BlockStore using PostgreSQL.
type BlockStore struct {
	pool *Pool
}

// NewBlockStore creates a new BlockStore.
func NewBlockStore(pool *Pool) *BlockStore {
	return &BlockStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BlockStore = (*BlockStore)(nil)

// Insert adds a block. Returns ErrDuplicateKey if the number exists.
func (s *BlockStore) Insert(ctx context.Context, number uint64, timestamp time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO blocks (block_number, block_timestamp) VALUES ($1, $2)`,
		int64(number), timestamp.UTC(),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert block: %w", err)
	}
	return nil
}

// GetTimestamps returns the timestamps of the requested blocks that exist.
func (s *BlockStore) GetTimestamps(ctx context.Context, numbers []uint64) (map[uint64]time.Time, error) {
	result := make(map[uint64]time.Time, len(numbers))
	if len(numbers) == 0 {
		return result, nil
	}

	params := make([]int64, len(numbers))
	for i, n := range numbers {
		params[i] = int64(n)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT block_number, block_timestamp FROM blocks WHERE block_number = ANY($1)`,
		params,
	)
	if err != nil {
		return nil, fmt.Errorf("get block timestamps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var number int64
		var ts time.Time
		if err := rows.Scan(&number, &ts); err != nil {
			return nil, fmt.Errorf("scan block row: %w", err)
		}
		result[uint64(number)] = ts
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate block rows: %w", err)
	}
	return result, nil
}

// DeleteByBlockRange removes blocks with after <= block_number < before.
func (s *BlockStore) DeleteByBlockRange(ctx context.Context, after, before uint64) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM blocks WHERE block_number >= $1 AND block_number < $2`,
		int64(after), int64(before),
	)
	if err != nil {
		return fmt.Errorf("delete blocks: %w", err)
	}
	return nil
}
