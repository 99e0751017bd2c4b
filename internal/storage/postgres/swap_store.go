package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"

	"mev-inspector/internal/domain"
	"mev-inspector/internal/storage"
)

// SwapStore implements storage.SwapStore using PostgreSQL.
type SwapStore struct {
	pool *Pool
}

// NewSwapStore creates a new SwapStore.
func NewSwapStore(pool *Pool) *SwapStore {
	return &SwapStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SwapStore = (*SwapStore)(nil)

// InsertBulk adds multiple swaps atomically. Fails entire batch on any duplicate.
func (s *SwapStore) InsertBulk(ctx context.Context, swaps []*domain.Swap) error {
	if len(swaps) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO swaps (
			block_number, transaction_hash, transaction_position, trace_address, abi_name, protocol,
			contract_address, from_address, to_address,
			token_in_address, token_in_amount, token_out_address, token_out_amount,
			error, transaction_eoa
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::text::numeric, $12, $13::text::numeric, $14, $15)
	`

	for _, swap := range swaps {
		if swap == nil {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			int64(swap.BlockNumber),
			swap.TransactionHash.Hex(),
			swap.TransactionPosition,
			traceParam(swap.TraceAddress),
			swap.AbiName,
			nullableString(string(swap.Protocol)),
			addressParam(swap.ContractAddress),
			addressParam(swap.From),
			addressParam(swap.To),
			addressParam(swap.TokenInAddress),
			numericParam(swap.TokenInAmount),
			addressParam(swap.TokenOutAddress),
			numericParam(swap.TokenOutAmount),
			nullableString(swap.Error),
			optionalAddressParam(swap.TransactionEOA),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert swap in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByBlock retrieves all swaps of a block in execution order.
func (s *SwapStore) GetByBlock(ctx context.Context, blockNumber uint64) ([]*domain.Swap, error) {
	query := `
		SELECT block_number, transaction_hash, transaction_position, trace_address, abi_name, protocol,
			contract_address, from_address, to_address,
			token_in_address, token_in_amount::text, token_out_address, token_out_amount::text,
			error, transaction_eoa
		FROM swaps
		WHERE block_number = $1
		ORDER BY transaction_position ASC, trace_address ASC
	`

	rows, err := s.pool.Query(ctx, query, int64(blockNumber))
	if err != nil {
		return nil, fmt.Errorf("get swaps by block: %w", err)
	}
	defer rows.Close()

	return scanSwaps(rows)
}

// DeleteByBlockRange removes swaps with after <= block_number < before.
func (s *SwapStore) DeleteByBlockRange(ctx context.Context, after, before uint64) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM swaps WHERE block_number >= $1 AND block_number < $2`,
		int64(after), int64(before),
	)
	if err != nil {
		return fmt.Errorf("delete swaps: %w", err)
	}
	return nil
}

// scanSwaps scans multiple rows into a slice of Swap.
func scanSwaps(rows pgx.Rows) ([]*domain.Swap, error) {
	var swaps []*domain.Swap

	for rows.Next() {
		var swap domain.Swap
		var blockNumber int64
		var txHash string
		var trace []int32
		var protocol, swapErr, eoa *string
		var contract, from, to, tokenIn, amountIn, tokenOut, amountOut string

		err := rows.Scan(
			&blockNumber, &txHash, &swap.TransactionPosition, &trace, &swap.AbiName, &protocol,
			&contract, &from, &to,
			&tokenIn, &amountIn, &tokenOut, &amountOut,
			&swapErr, &eoa,
		)
		if err != nil {
			return nil, fmt.Errorf("scan swap row: %w", err)
		}

		swap.BlockNumber = uint64(blockNumber)
		swap.TransactionHash = common.HexToHash(txHash)
		swap.TraceAddress = parseTrace(trace)
		if protocol != nil {
			swap.Protocol = domain.Protocol(*protocol)
		}
		if swapErr != nil {
			swap.Error = *swapErr
		}
		for _, f := range []struct {
			dst *common.Address
			src string
		}{
			{&swap.ContractAddress, contract},
			{&swap.From, from},
			{&swap.To, to},
			{&swap.TokenInAddress, tokenIn},
			{&swap.TokenOutAddress, tokenOut},
		} {
			if *f.dst, err = parseAddress(f.src); err != nil {
				return nil, err
			}
		}
		if swap.TokenInAmount, err = parseNumeric(amountIn); err != nil {
			return nil, err
		}
		if swap.TokenOutAmount, err = parseNumeric(amountOut); err != nil {
			return nil, err
		}
		if eoa != nil {
			addr, err := parseAddress(*eoa)
			if err != nil {
				return nil, err
			}
			swap.TransactionEOA = &addr
		}

		swaps = append(swaps, &swap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swap rows: %w", err)
	}

	return swaps, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
