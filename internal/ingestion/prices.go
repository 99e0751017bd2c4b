package ingestion

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"mev-inspector/internal/domain"
)

// PriceRecord is one line of a price CSV.
// Timestamp is RFC 3339 or unix seconds.
type PriceRecord struct {
	TokenAddress string `csv:"token_address"`
	Timestamp    string `csv:"timestamp"`
	USDPrice     string `csv:"usd_price"`
}

// ReadPricesCSV parses a price CSV with header token_address,timestamp,usd_price.
func ReadPricesCSV(r io.Reader) ([]*domain.Price, error) {
	var records []PriceRecord
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("unmarshal price csv: %w", err)
	}

	prices := make([]*domain.Price, 0, len(records))
	for i, rec := range records {
		p, err := rec.toPrice()
		if err != nil {
			return nil, fmt.Errorf("price csv line %d: %w", i+2, err)
		}
		prices = append(prices, p)
	}
	return prices, nil
}

func (rec PriceRecord) toPrice() (*domain.Price, error) {
	if !common.IsHexAddress(rec.TokenAddress) {
		return nil, fmt.Errorf("invalid token address %q", rec.TokenAddress)
	}
	ts, err := parseTimestamp(rec.Timestamp)
	if err != nil {
		return nil, err
	}
	usd, err := decimal.NewFromString(rec.USDPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid usd price %q: %w", rec.USDPrice, err)
	}
	return &domain.Price{
		TokenAddress: common.HexToAddress(rec.TokenAddress),
		Timestamp:    ts,
		USDPrice:     usd,
	}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return ts.UTC(), nil
}
