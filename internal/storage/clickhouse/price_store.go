package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"mev-inspector/internal/domain"
	"mev-inspector/internal/storage"
)

// PriceStore implements storage.PriceStore using ClickHouse.
// Timestamps are kept at millisecond precision in UTC.
type PriceStore struct {
	conn *Conn
}

// NewPriceStore creates a new PriceStore.
func NewPriceStore(conn *Conn) *PriceStore {
	return &PriceStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceStore = (*PriceStore)(nil)

type priceKey struct {
	token string
	ms    int64
}

// InsertBulk adds multiple prices. Fails entire batch on duplicate (token, timestamp).
func (s *PriceStore) InsertBulk(ctx context.Context, prices []*domain.Price) error {
	if len(prices) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[priceKey]struct{}, len(prices))
	tokens := make(map[string]struct{})
	var minTs, maxTs time.Time
	for i, p := range prices {
		if p == nil {
			return storage.ErrInvalidInput
		}
		k := priceKey{domain.AddressKey(p.TokenAddress), p.Timestamp.UnixMilli()}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
		tokens[k.token] = struct{}{}
		if i == 0 || p.Timestamp.Before(minTs) {
			minTs = p.Timestamp
		}
		if i == 0 || p.Timestamp.After(maxTs) {
			maxTs = p.Timestamp
		}
	}

	// Check for duplicates against existing rows
	existing, err := s.existingKeys(ctx, keys(tokens), minTs, maxTs)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	for k := range seen {
		if _, ok := existing[k]; ok {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO prices (token_address, timestamp, usd_price)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range prices {
		err = batch.Append(domain.AddressKey(p.TokenAddress), p.Timestamp.UTC(), p.USDPrice)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTokens retrieves the series of each requested token, ordered by timestamp ASC.
func (s *PriceStore) GetByTokens(ctx context.Context, tokens []common.Address) (map[common.Address][]*domain.Price, error) {
	result := make(map[common.Address][]*domain.Price)
	if len(tokens) == 0 {
		return result, nil
	}

	params := make([]string, len(tokens))
	for i, t := range tokens {
		params[i] = domain.AddressKey(t)
	}

	query := `
		SELECT token_address, timestamp, usd_price
		FROM prices
		WHERE token_address IN ?
		ORDER BY token_address ASC, timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("query prices by tokens: %w", err)
	}
	defer rows.Close()

	prices, err := scanPrices(rows)
	if err != nil {
		return nil, err
	}
	for _, p := range prices {
		result[p.TokenAddress] = append(result[p.TokenAddress], p)
	}
	return result, nil
}

func (s *PriceStore) existingKeys(ctx context.Context, tokens []string, from, to time.Time) (map[priceKey]struct{}, error) {
	query := `
		SELECT token_address, timestamp, usd_price
		FROM prices
		WHERE token_address IN ? AND timestamp >= ? AND timestamp <= ?
	`

	rows, err := s.conn.Query(ctx, query, tokens, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prices, err := scanPrices(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[priceKey]struct{}, len(prices))
	for _, p := range prices {
		out[priceKey{domain.AddressKey(p.TokenAddress), p.Timestamp.UnixMilli()}] = struct{}{}
	}
	return out, nil
}

// scanPrices scans multiple rows.
func scanPrices(rows chRows) ([]*domain.Price, error) {
	var prices []*domain.Price

	for rows.Next() {
		var token string
		var ts time.Time
		var usd decimal.Decimal

		if err := rows.Scan(&token, &ts, &usd); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		if !common.IsHexAddress(token) {
			return nil, fmt.Errorf("invalid token address %q", token)
		}

		prices = append(prices, &domain.Price{
			TokenAddress: common.HexToAddress(token),
			Timestamp:    ts.UTC(),
			USDPrice:     usd,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price rows: %w", err)
	}

	return prices, nil
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
