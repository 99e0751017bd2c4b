package classifier

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mev-inspector/internal/domain"
)

var (
	pool      = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	caller    = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	recipient = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	tokenA    = common.HexToAddress("0x000000000000000000000000000000000000000a")
	tokenB    = common.HexToAddress("0x000000000000000000000000000000000000000b")
)

func swapTrace(protocol domain.Protocol, abi, sig string, inputs map[string]any) *domain.DecodedCallTrace {
	return &domain.DecodedCallTrace{
		BlockNumber:         100,
		TransactionHash:     common.HexToHash("0x01"),
		TransactionPosition: 3,
		TraceAddress:        domain.TraceAddress{0, 1},
		From:                caller,
		To:                  pool,
		FunctionSignature:   sig,
		Inputs:              inputs,
		Protocol:            protocol,
		AbiName:             abi,
	}
}

func TestRegistry_SwapRecipient(t *testing.T) {
	r := NewDefaultRegistry()

	tests := []struct {
		name  string
		trace *domain.DecodedCallTrace
		want  common.Address
	}{
		{
			name:  "uniswap v2 uses to argument",
			trace: swapTrace(domain.ProtocolUniswapV2, UniswapV2PairABI, UniswapV2SwapSignature, map[string]any{"to": recipient.Hex()}),
			want:  recipient,
		},
		{
			name:  "sushiswap shares the v2 pair abi",
			trace: swapTrace(domain.ProtocolSushiswap, UniswapV2PairABI, UniswapV2SwapSignature, map[string]any{"to": recipient}),
			want:  recipient,
		},
		{
			name:  "uniswap v3 uses recipient argument",
			trace: swapTrace(domain.ProtocolUniswapV3, UniswapV3PoolABI, UniswapV3SwapSignature, map[string]any{"recipient": recipient.Hex()}),
			want:  recipient,
		},
		{
			name:  "balancer v1 uses caller",
			trace: swapTrace(domain.ProtocolBalancerV1, BalancerV1PoolABI, "swapExactAmountIn(address,uint256,address,uint256,uint256)", nil),
			want:  caller,
		},
		{
			name:  "curve uses caller",
			trace: swapTrace(domain.ProtocolCurve, CurveSwapABI, "exchange(int128,int128,uint256,uint256)", nil),
			want:  caller,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := r.SwapClassifier(tt.trace)
			require.True(t, ok)

			got, err := c.SwapRecipient(tt.trace)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_Miss(t *testing.T) {
	r := NewDefaultRegistry()

	// Right signature, wrong protocol tag.
	trace := swapTrace(domain.ProtocolCurve, UniswapV2PairABI, UniswapV2SwapSignature, nil)
	assert.False(t, r.IsSwap(trace))

	trace = swapTrace(domain.ProtocolUniswapV2, UniswapV2PairABI, "mint(address)", nil)
	swap, err := r.ClassifySwap(trace, nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, swap)
}

func TestRegistry_ERC20MatchesAnyProtocol(t *testing.T) {
	r := NewDefaultRegistry()

	trace := &domain.DecodedCallTrace{
		TransactionHash:   common.HexToHash("0x01"),
		TraceAddress:      domain.TraceAddress{0},
		From:              caller,
		To:                tokenA,
		FunctionSignature: "transferFrom(address,address,uint256)",
		Inputs: map[string]any{
			"sender":    caller.Hex(),
			"recipient": pool.Hex(),
			"amount":    json.Number("1000000000000000000000"),
		},
		Protocol: domain.ProtocolUniswapV2,
		AbiName:  ERC20ABI,
	}

	c, ok := r.TransferClassifier(trace)
	require.True(t, ok)

	transfer, err := c.Transfer(trace)
	require.NoError(t, err)
	assert.Equal(t, tokenA, transfer.TokenAddress)
	assert.Equal(t, caller, transfer.From)
	assert.Equal(t, pool, transfer.To)
	assert.Equal(t, "1000000000000000000000", transfer.Amount.String())
}

func TestRegistry_MalformedInput(t *testing.T) {
	r := NewDefaultRegistry()

	trace := swapTrace(domain.ProtocolUniswapV2, UniswapV2PairABI, UniswapV2SwapSignature, map[string]any{"to": 42})
	_, err := r.ClassifySwap(trace, nil, nil)
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestRegistry_CustomSpec(t *testing.T) {
	custom := Spec{
		AbiName:  "MyPool",
		Protocol: domain.Protocol("my_dex"),
		Swaps: map[string]SwapClassifier{
			"trade(uint256)": callerIsRecipient,
		},
	}
	r := NewRegistry(custom)
	assert.Equal(t, 1, r.Len())

	trace := swapTrace("my_dex", "MyPool", "trade(uint256)", nil)
	assert.True(t, r.IsSwap(trace))
}

func transfer(token, from, to common.Address, amount int64, addr ...int) *domain.Transfer {
	return &domain.Transfer{
		TransactionHash: common.HexToHash("0x01"),
		TraceAddress:    addr,
		TokenAddress:    token,
		From:            from,
		To:              to,
		Amount:          big.NewInt(amount),
	}
}

func TestClassifySwap_FromTransfers(t *testing.T) {
	r := NewDefaultRegistry()
	trace := swapTrace(domain.ProtocolUniswapV2, UniswapV2PairABI, UniswapV2SwapSignature, map[string]any{"to": recipient.Hex()})

	prior := []*domain.Transfer{
		transfer(tokenA, caller, pool, 5, 0, 0),
		transfer(tokenA, caller, pool, 100, 0, 0, 1),
	}
	child := []*domain.Transfer{
		transfer(tokenB, pool, recipient, 90, 0, 1, 0),
	}

	swap, err := r.ClassifySwap(trace, prior, child)
	require.NoError(t, err)
	require.NotNil(t, swap)

	assert.Equal(t, pool, swap.ContractAddress)
	assert.Equal(t, recipient, swap.To)
	assert.Equal(t, caller, swap.From)
	assert.Equal(t, tokenA, swap.TokenInAddress)
	assert.Equal(t, int64(100), swap.TokenInAmount.Int64(), "last transfer into pool wins")
	assert.Equal(t, tokenB, swap.TokenOutAddress)
	assert.Equal(t, int64(90), swap.TokenOutAmount.Int64())
	assert.Equal(t, 3, swap.TransactionPosition)
	assert.Equal(t, domain.TraceAddress{0, 1}, swap.TraceAddress)
}

func TestClassifySwap_BalancerPrefersChildTransferIn(t *testing.T) {
	r := NewDefaultRegistry()
	trace := swapTrace(domain.ProtocolBalancerV1, BalancerV1PoolABI, "swapExactAmountIn(address,uint256,address,uint256,uint256)", nil)

	prior := []*domain.Transfer{transfer(tokenB, caller, pool, 7, 0, 0)}
	child := []*domain.Transfer{
		transfer(tokenA, caller, pool, 100, 0, 1, 0),
		transfer(tokenB, pool, caller, 90, 0, 1, 1),
	}

	swap, err := r.ClassifySwap(trace, prior, child)
	require.NoError(t, err)
	assert.Equal(t, tokenA, swap.TokenInAddress)
	assert.Equal(t, caller, swap.To)
}

func TestClassifySwap_MissingTransfers(t *testing.T) {
	r := NewDefaultRegistry()
	trace := swapTrace(domain.ProtocolUniswapV2, UniswapV2PairABI, UniswapV2SwapSignature, map[string]any{"to": recipient.Hex()})

	_, err := r.ClassifySwap(trace, nil, []*domain.Transfer{transfer(tokenB, pool, recipient, 90)})
	assert.ErrorIs(t, err, ErrIncompleteSwap)

	_, err = r.ClassifySwap(trace, []*domain.Transfer{transfer(tokenA, caller, pool, 100)}, nil)
	assert.ErrorIs(t, err, ErrIncompleteSwap)
}
