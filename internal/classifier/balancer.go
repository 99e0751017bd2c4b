package classifier

import (
	"github.com/ethereum/go-ethereum/common"

	"mev-inspector/internal/domain"
)

// BalancerV1PoolABI is the ABI name of a Balancer V1 pool.
const BalancerV1PoolABI = "BPool"

// callerIsRecipient treats the caller of the pool as the owner of the trade.
var callerIsRecipient = SwapClassifierFunc(func(trace *domain.DecodedCallTrace) (common.Address, error) {
	return trace.From, nil
})

// BalancerSpecs covers Balancer V1 pools.
var BalancerSpecs = []Spec{
	{
		AbiName:  BalancerV1PoolABI,
		Protocol: domain.ProtocolBalancerV1,
		Swaps: map[string]SwapClassifier{
			"swapExactAmountIn(address,uint256,address,uint256,uint256)":  callerIsRecipient,
			"swapExactAmountOut(address,uint256,address,uint256,uint256)": callerIsRecipient,
		},
	},
}
