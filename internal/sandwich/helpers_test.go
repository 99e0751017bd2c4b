package sandwich

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"mev-inspector/internal/domain"
	"mev-inspector/internal/storage"
)

var (
	pool       = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	otherPool  = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	attacker   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	victim     = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	tokenA     = common.HexToAddress("0x000000000000000000000000000000000000000a")
	tokenB     = common.HexToAddress("0x000000000000000000000000000000000000000b")
	unknownTok = common.HexToAddress("0x000000000000000000000000000000000000dead")
)

// e returns v * 10^exp as a big integer.
func e(v int64, exp int) *big.Int {
	return new(big.Int).Mul(big.NewInt(v), new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil))
}

func swap(position int, to common.Address, in, out common.Address, amountIn, amountOut *big.Int) *domain.Swap {
	return &domain.Swap{
		TransactionHash:     common.BigToHash(big.NewInt(int64(position + 1))),
		TransactionPosition: position,
		BlockNumber:         100,
		TraceAddress:        domain.TraceAddress{0},
		ContractAddress:     pool,
		From:                to,
		To:                  to,
		TokenInAddress:      in,
		TokenInAmount:       amountIn,
		TokenOutAddress:     out,
		TokenOutAmount:      amountOut,
	}
}

// staticTokens resolves a fixed decimals table.
type staticTokens map[common.Address]int

func (s staticTokens) Get(_ context.Context, address common.Address) (*domain.Token, error) {
	d, ok := s[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, address.Hex())
	}
	return &domain.Token{Address: address, Decimals: d}, nil
}

var testTokens = staticTokens{tokenA: 18, tokenB: 6}

// raw converts a token-unit amount to raw units.
func raw(amount string, decimals int) *big.Int {
	return decimal.RequireFromString(amount).Shift(int32(decimals)).BigInt()
}
