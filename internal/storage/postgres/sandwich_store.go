package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"mev-inspector/internal/domain"
	"mev-inspector/internal/storage"
)

// SandwichStore implements storage.SandwichStore using PostgreSQL.
// Victim swaps live in sandwiched_swaps, one row per victim.
type SandwichStore struct {
	pool *Pool
}

// NewSandwichStore creates a new SandwichStore.
func NewSandwichStore(pool *Pool) *SandwichStore {
	return &SandwichStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SandwichStore = (*SandwichStore)(nil)

// InsertBulk adds multiple sandwiches atomically. Fails entire batch on any duplicate id.
func (s *SandwichStore) InsertBulk(ctx context.Context, sandwiches []*domain.Sandwich) error {
	if len(sandwiches) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	sandwichQuery := `
		INSERT INTO sandwiches (
			id, block_number, sandwicher_address, frontrun_swap, backrun_swap,
			profit_token_address, profit_amount, profit_amount_decimal, profit_amount_usd
		) VALUES ($1, $2, $3, $4, $5, $6, $7::text::numeric, $8::text::numeric, $9::text::numeric)
	`
	victimQuery := `
		INSERT INTO sandwiched_swaps (
			sandwich_id, swap_index, block_number, transaction_hash, trace_address, swap
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, sw := range sandwiches {
		if sw == nil || sw.ID == "" || sw.FrontrunSwap == nil || sw.BackrunSwap == nil {
			return storage.ErrInvalidInput
		}
		front, err := json.Marshal(sw.FrontrunSwap)
		if err != nil {
			return fmt.Errorf("encode frontrun swap: %w", err)
		}
		back, err := json.Marshal(sw.BackrunSwap)
		if err != nil {
			return fmt.Errorf("encode backrun swap: %w", err)
		}

		_, err = tx.Exec(ctx, sandwichQuery,
			sw.ID,
			int64(sw.BlockNumber),
			addressParam(sw.SandwicherAddress),
			front,
			back,
			addressParam(sw.ProfitTokenAddress),
			numericParam(sw.ProfitAmount),
			decimalParam(sw.ProfitAmountDecimal),
			decimalParam(sw.ProfitAmountUSD),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert sandwich: %w", err)
		}

		for i, v := range sw.SandwichedSwaps {
			data, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("encode sandwiched swap: %w", err)
			}
			_, err = tx.Exec(ctx, victimQuery,
				sw.ID, i, int64(v.BlockNumber), v.TransactionHash.Hex(), traceParam(v.TraceAddress), data,
			)
			if err != nil {
				if isDuplicateKeyError(err) {
					return storage.ErrDuplicateKey
				}
				return fmt.Errorf("insert sandwiched swap: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// UpdateProfits writes decimal and USD profit for existing sandwiches.
func (s *SandwichStore) UpdateProfits(ctx context.Context, sandwiches []*domain.Sandwich) error {
	if len(sandwiches) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE sandwiches
		SET profit_amount_decimal = $2::text::numeric, profit_amount_usd = $3::text::numeric
		WHERE id = $1
	`

	for _, sw := range sandwiches {
		tag, err := tx.Exec(ctx, query, sw.ID, decimalParam(sw.ProfitAmountDecimal), decimalParam(sw.ProfitAmountUSD))
		if err != nil {
			return fmt.Errorf("update sandwich profit: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return storage.ErrNotFound
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Fetch retrieves sandwiches matching filter, ordered by (block_number, id) ASC.
// A zero limit returns all matching rows after offset.
func (s *SandwichStore) Fetch(ctx context.Context, filter storage.SandwichFilter, offset, limit int) ([]*domain.Sandwich, error) {
	if offset < 0 || limit < 0 {
		return nil, storage.ErrInvalidInput
	}

	where, args := filterClause(filter)
	query := `
		SELECT id, block_number, sandwicher_address, frontrun_swap, backrun_swap,
			profit_token_address, profit_amount::text, profit_amount_decimal::text, profit_amount_usd::text
		FROM sandwiches` + where + `
		ORDER BY block_number ASC, id ASC`

	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch sandwiches: %w", err)
	}
	sandwiches, err := scanSandwiches(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(sandwiches) == 0 {
		return nil, nil
	}

	if err := s.loadVictims(ctx, sandwiches); err != nil {
		return nil, err
	}
	return sandwiches, nil
}

// Count returns the number of sandwiches matching filter.
func (s *SandwichStore) Count(ctx context.Context, filter storage.SandwichFilter) (int, error) {
	where, args := filterClause(filter)

	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM sandwiches`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sandwiches: %w", err)
	}
	return count, nil
}

// DeleteByBlockRange removes sandwiches with after <= block_number < before.
// Sandwiched swap rows are removed by cascade.
func (s *SandwichStore) DeleteByBlockRange(ctx context.Context, after, before uint64) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM sandwiches WHERE block_number >= $1 AND block_number < $2`,
		int64(after), int64(before),
	)
	if err != nil {
		return fmt.Errorf("delete sandwiches: %w", err)
	}
	return nil
}

// loadVictims fills SandwichedSwaps for the given sandwiches.
func (s *SandwichStore) loadVictims(ctx context.Context, sandwiches []*domain.Sandwich) error {
	ids := make([]string, len(sandwiches))
	byID := make(map[string]*domain.Sandwich, len(sandwiches))
	for i, sw := range sandwiches {
		ids[i] = sw.ID
		byID[sw.ID] = sw
	}

	rows, err := s.pool.Query(ctx, `
		SELECT sandwich_id, swap
		FROM sandwiched_swaps
		WHERE sandwich_id = ANY($1)
		ORDER BY sandwich_id, swap_index
	`, ids)
	if err != nil {
		return fmt.Errorf("fetch sandwiched swaps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return fmt.Errorf("scan sandwiched swap row: %w", err)
		}
		var v domain.Swap
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("decode sandwiched swap: %w", err)
		}
		if sw, ok := byID[id]; ok {
			sw.SandwichedSwaps = append(sw.SandwichedSwaps, &v)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate sandwiched swap rows: %w", err)
	}
	return nil
}

// filterClause renders a SandwichFilter as a WHERE clause with positional args.
func filterClause(f storage.SandwichFilter) (string, []any) {
	var conds []string
	var args []any

	if f.MissingUSD {
		conds = append(conds, "profit_amount_usd IS NULL")
	}
	if f.MissingDecimal {
		conds = append(conds, "profit_amount_decimal IS NULL")
	}
	if f.FromBlock != 0 {
		args = append(args, int64(f.FromBlock))
		conds = append(conds, fmt.Sprintf("block_number >= $%d", len(args)))
	}
	if f.ToBlock != 0 {
		args = append(args, int64(f.ToBlock))
		conds = append(conds, fmt.Sprintf("block_number <= $%d", len(args)))
	}
	if f.ProfitToken != nil {
		args = append(args, addressParam(*f.ProfitToken))
		conds = append(conds, fmt.Sprintf("profit_token_address = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// scanSandwiches scans multiple rows into a slice of Sandwich.
func scanSandwiches(rows pgx.Rows) ([]*domain.Sandwich, error) {
	var sandwiches []*domain.Sandwich

	for rows.Next() {
		var sw domain.Sandwich
		var blockNumber int64
		var sandwicher, profitToken, profitAmount string
		var front, back []byte
		var profitDecimal, profitUSD *string

		err := rows.Scan(
			&sw.ID,
			&blockNumber,
			&sandwicher,
			&front,
			&back,
			&profitToken,
			&profitAmount,
			&profitDecimal,
			&profitUSD,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sandwich row: %w", err)
		}

		sw.BlockNumber = uint64(blockNumber)
		if sw.SandwicherAddress, err = parseAddress(sandwicher); err != nil {
			return nil, err
		}
		if sw.ProfitTokenAddress, err = parseAddress(profitToken); err != nil {
			return nil, err
		}
		if sw.ProfitAmount, err = parseNumeric(profitAmount); err != nil {
			return nil, err
		}
		if sw.ProfitAmountDecimal, err = parseDecimal(profitDecimal); err != nil {
			return nil, err
		}
		if sw.ProfitAmountUSD, err = parseDecimal(profitUSD); err != nil {
			return nil, err
		}
		sw.FrontrunSwap = new(domain.Swap)
		if err := json.Unmarshal(front, sw.FrontrunSwap); err != nil {
			return nil, fmt.Errorf("decode frontrun swap: %w", err)
		}
		sw.BackrunSwap = new(domain.Swap)
		if err := json.Unmarshal(back, sw.BackrunSwap); err != nil {
			return nil, fmt.Errorf("decode backrun swap: %w", err)
		}

		sandwiches = append(sandwiches, &sw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sandwich rows: %w", err)
	}

	return sandwiches, nil
}
