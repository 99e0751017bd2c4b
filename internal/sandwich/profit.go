package sandwich

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"mev-inspector/internal/domain"
)

// divisionPrecision is the number of decimal places kept by ratio divisions.
const divisionPrecision = 36

// TokenResolver resolves token metadata. *tokens.Cache implements it.
type TokenResolver interface {
	Get(ctx context.Context, address common.Address) (*domain.Token, error)
}

// ProfitCalculator computes the raw-unit profit of a frontrun/backrun pair.
type ProfitCalculator struct {
	tokens TokenResolver
}

// NewProfitCalculator creates a ProfitCalculator resolving decimals through tokens.
func NewProfitCalculator(tokens TokenResolver) *ProfitCalculator {
	return &ProfitCalculator{tokens: tokens}
}

// Compute returns the profit of the pair in raw units of the frontrun's token-in.
//
// When either token cannot be resolved the profit is zero and a *Error is
// returned alongside it; the sandwich is still valid.
func (p *ProfitCalculator) Compute(ctx context.Context, frontrun, backrun *domain.Swap) (*big.Int, error) {
	tokenA, err := p.tokens.Get(ctx, frontrun.TokenInAddress)
	if err != nil {
		return new(big.Int), tokenError("", err)
	}
	tokenB, err := p.tokens.Get(ctx, frontrun.TokenOutAddress)
	if err != nil {
		return new(big.Int), tokenError("", err)
	}
	return ComputeProfit(frontrun, backrun, tokenA.Decimals, tokenB.Decimals), nil
}

// ComputeProfit applies the price-impact profit formula.
//
// The frontrun trades A for B and the backrun trades B back for A; decimalsA
// and decimalsB scale raw amounts to token units. The result is floored to
// raw A units and may be zero or negative. Any zero amount yields zero.
func ComputeProfit(frontrun, backrun *domain.Swap, decimalsA, decimalsB int) *big.Int {
	frontIn := scaled(frontrun.TokenInAmount, decimalsA)
	frontOut := scaled(frontrun.TokenOutAmount, decimalsB)
	backIn := scaled(backrun.TokenInAmount, decimalsB)
	backOut := scaled(backrun.TokenOutAmount, decimalsA)

	if frontIn.IsZero() || frontOut.IsZero() || backIn.IsZero() || backOut.IsZero() {
		return new(big.Int)
	}

	inPrice := ratio(frontIn, frontOut)
	outPrice := ratio(backIn, backOut)
	flipped := backOut.GreaterThan(backIn)

	var profit decimal.Decimal
	switch backIn.Cmp(frontOut) {
	case 1:
		if flipped {
			profit = frontOut.Mul(outPrice.Sub(inPrice))
		} else {
			profit = frontOut.DivRound(outPrice, divisionPrecision).
				Sub(frontOut.DivRound(inPrice, divisionPrecision))
		}
	case -1:
		lo, hi := decimal.Min(inPrice, outPrice), decimal.Max(inPrice, outPrice)
		profit = decimal.NewFromInt(1).Sub(lo.DivRound(hi, divisionPrecision)).Mul(backOut)
	default:
		profit = backOut.Sub(frontIn)
	}

	return profit.Shift(int32(decimalsA)).Floor().BigInt()
}

// ratio returns max(a, b) / min(a, b), always >= 1.
func ratio(a, b decimal.Decimal) decimal.Decimal {
	return decimal.Max(a, b).DivRound(decimal.Min(a, b), divisionPrecision)
}

// scaled converts a raw amount to token units. A nil amount is zero.
func scaled(raw *big.Int, decimals int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}
