package memory

import (
	"math/big"

	"github.com/shopspring/decimal"

	"mev-inspector/internal/domain"
)

func cloneSwap(s *domain.Swap) *domain.Swap {
	if s == nil {
		return nil
	}
	copy := *s
	copy.TraceAddress = append(domain.TraceAddress{}, s.TraceAddress...)
	copy.TokenInAmount = cloneInt(s.TokenInAmount)
	copy.TokenOutAmount = cloneInt(s.TokenOutAmount)
	if s.TransactionEOA != nil {
		eoa := *s.TransactionEOA
		copy.TransactionEOA = &eoa
	}
	return &copy
}

func cloneSandwich(s *domain.Sandwich) *domain.Sandwich {
	copy := *s
	copy.FrontrunSwap = cloneSwap(s.FrontrunSwap)
	copy.BackrunSwap = cloneSwap(s.BackrunSwap)
	copy.SandwichedSwaps = make([]*domain.Swap, len(s.SandwichedSwaps))
	for i, v := range s.SandwichedSwaps {
		copy.SandwichedSwaps[i] = cloneSwap(v)
	}
	copy.ProfitAmount = cloneInt(s.ProfitAmount)
	copy.ProfitAmountDecimal = cloneDecimal(s.ProfitAmountDecimal)
	copy.ProfitAmountUSD = cloneDecimal(s.ProfitAmountUSD)
	return &copy
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func cloneDecimal(v *decimal.Decimal) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := *v
	return &d
}
