package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Sandwich is a detected frontrun / victims / backrun triple on one pool.
//
// ProfitAmount is in raw units of ProfitTokenAddress and may be zero or negative.
// ProfitAmountDecimal and ProfitAmountUSD are nil until enrichment.
type Sandwich struct {
	ID                  string
	BlockNumber         uint64
	SandwicherAddress   common.Address
	FrontrunSwap        *Swap
	BackrunSwap         *Swap
	SandwichedSwaps     []*Swap
	ProfitTokenAddress  common.Address
	ProfitAmount        *big.Int
	ProfitAmountDecimal *decimal.Decimal
	ProfitAmountUSD     *decimal.Decimal
}

// Enriched reports whether both decimal and fiat profit are known.
func (s *Sandwich) Enriched() bool {
	return s.ProfitAmountDecimal != nil && s.ProfitAmountUSD != nil
}

// WithProfitValuation returns a copy of s carrying the given decimal and fiat profit.
// The receiver is left untouched.
func (s *Sandwich) WithProfitValuation(amountDecimal, amountUSD decimal.Decimal) *Sandwich {
	out := *s
	out.ProfitAmountDecimal = &amountDecimal
	out.ProfitAmountUSD = &amountUSD
	if s.ProfitAmount != nil {
		out.ProfitAmount = new(big.Int).Set(s.ProfitAmount)
	}
	out.SandwichedSwaps = append([]*Swap(nil), s.SandwichedSwaps...)
	return &out
}
