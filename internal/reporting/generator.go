package reporting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"mev-inspector/internal/domain"
	"mev-inspector/internal/storage"
)

// DefaultPageSize is the fetch page size used while generating a report.
const DefaultPageSize = 500

// Generator produces reports from stored sandwiches.
type Generator struct {
	sandwichStore storage.SandwichStore
	pageSize      int
	now           func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(sandwichStore storage.SandwichStore) *Generator {
	return &Generator{
		sandwichStore: sandwichStore,
		pageSize:      DefaultPageSize,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithPageSize overrides the fetch page size.
func (g *Generator) WithPageSize(n int) *Generator {
	if n > 0 {
		g.pageSize = n
	}
	return g
}

// Generate loads every sandwich matching filter and builds the report.
func (g *Generator) Generate(ctx context.Context, filter storage.SandwichFilter) (*Report, error) {
	var all []*domain.Sandwich
	for offset := 0; ; offset += g.pageSize {
		page, err := g.sandwichStore.Fetch(ctx, filter, offset, g.pageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch sandwiches: %w", err)
		}
		all = append(all, page...)
		if len(page) < g.pageSize {
			break
		}
	}

	rows := make([]SandwichRow, 0, len(all))
	for _, s := range all {
		rows = append(rows, toRow(s))
	}

	return &Report{
		GeneratedAt: g.now(),
		Filter:      filter,
		Summary:     summarize(all),
		ByToken:     byToken(all),
		Sandwiches:  rows,
	}, nil
}

func summarize(sandwiches []*domain.Sandwich) Summary {
	s := Summary{Sandwiches: len(sandwiches)}
	total := decimal.Zero
	for i, sw := range sandwiches {
		s.Victims += len(sw.SandwichedSwaps)
		if sw.ProfitAmountUSD != nil {
			s.Enriched++
			total = total.Add(*sw.ProfitAmountUSD)
		}
		if i == 0 || sw.BlockNumber < s.FirstBlock {
			s.FirstBlock = sw.BlockNumber
		}
		if sw.BlockNumber > s.LastBlock {
			s.LastBlock = sw.BlockNumber
		}
	}
	s.TotalProfitUSD = total.String()
	return s
}

func byToken(sandwiches []*domain.Sandwich) []TokenProfitRow {
	type acc struct {
		row      TokenProfitRow
		decimals decimal.Decimal
		usd      decimal.Decimal
	}
	groups := make(map[string]*acc)
	for _, sw := range sandwiches {
		key := domain.AddressKey(sw.ProfitTokenAddress)
		a, ok := groups[key]
		if !ok {
			a = &acc{row: TokenProfitRow{TokenAddress: key}}
			groups[key] = a
		}
		a.row.Sandwiches++
		if sw.Enriched() {
			a.row.Enriched++
			a.decimals = a.decimals.Add(*sw.ProfitAmountDecimal)
			a.usd = a.usd.Add(*sw.ProfitAmountUSD)
		}
	}

	out := make([]TokenProfitRow, 0, len(groups))
	for _, a := range groups {
		a.row.ProfitDecimal = a.decimals.String()
		a.row.ProfitUSD = a.usd.String()
		out = append(out, a.row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TokenAddress < out[j].TokenAddress })
	return out
}

func toRow(s *domain.Sandwich) SandwichRow {
	row := SandwichRow{
		ID:                 s.ID,
		BlockNumber:        s.BlockNumber,
		SandwicherAddress:  domain.AddressKey(s.SandwicherAddress),
		Victims:            len(s.SandwichedSwaps),
		ProfitTokenAddress: domain.AddressKey(s.ProfitTokenAddress),
		ProfitAmount:       "0",
	}
	if s.FrontrunSwap != nil {
		row.PoolAddress = domain.AddressKey(s.FrontrunSwap.ContractAddress)
		row.FrontrunTx = s.FrontrunSwap.TransactionHash.Hex()
	}
	if s.BackrunSwap != nil {
		row.BackrunTx = s.BackrunSwap.TransactionHash.Hex()
	}
	if s.ProfitAmount != nil {
		row.ProfitAmount = s.ProfitAmount.String()
	}
	if s.ProfitAmountDecimal != nil {
		row.ProfitAmountDecimal = s.ProfitAmountDecimal.String()
	}
	if s.ProfitAmountUSD != nil {
		row.ProfitAmountUSD = s.ProfitAmountUSD.String()
	}

	victims := make([]string, len(s.SandwichedSwaps))
	for i, v := range s.SandwichedSwaps {
		victims[i] = v.TransactionHash.Hex()
	}
	row.VictimTxs = strings.Join(victims, ";")
	return row
}
