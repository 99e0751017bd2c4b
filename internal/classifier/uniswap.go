package classifier

import (
	"github.com/ethereum/go-ethereum/common"

	"mev-inspector/internal/domain"
)

// Uniswap V2 pair and V3 pool ABI names and swap signatures.
const (
	UniswapV2PairABI = "UniswapV2Pair"
	UniswapV3PoolABI = "UniswapV3Pool"

	UniswapV2SwapSignature = "swap(uint256,uint256,address,bytes)"
	UniswapV3SwapSignature = "swap(address,bool,int256,uint160,bytes)"
)

// Pair swaps name the recipient "to"; pool swaps name it "recipient".
var (
	uniswapV2Swap = SwapClassifierFunc(func(trace *domain.DecodedCallTrace) (common.Address, error) {
		return addressInput(trace, "to")
	})
	uniswapV3Swap = SwapClassifierFunc(func(trace *domain.DecodedCallTrace) (common.Address, error) {
		return addressInput(trace, "recipient")
	})
)

// UniswapSpecs covers Uniswap V2, Uniswap V3 and SushiSwap (a V2 fork).
var UniswapSpecs = []Spec{
	{
		AbiName:  UniswapV2PairABI,
		Protocol: domain.ProtocolUniswapV2,
		Swaps:    map[string]SwapClassifier{UniswapV2SwapSignature: uniswapV2Swap},
	},
	{
		AbiName:  UniswapV2PairABI,
		Protocol: domain.ProtocolSushiswap,
		Swaps:    map[string]SwapClassifier{UniswapV2SwapSignature: uniswapV2Swap},
	},
	{
		AbiName:  UniswapV3PoolABI,
		Protocol: domain.ProtocolUniswapV3,
		Swaps:    map[string]SwapClassifier{UniswapV3SwapSignature: uniswapV3Swap},
	},
}
