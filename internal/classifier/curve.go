package classifier

import "mev-inspector/internal/domain"

// CurveSwapABI is the ABI name shared by Curve stable-swap pools.
const CurveSwapABI = "CurveSwap"

// CurveSpecs covers Curve stable-swap exchanges. The pool always pays the caller.
var CurveSpecs = []Spec{
	{
		AbiName:  CurveSwapABI,
		Protocol: domain.ProtocolCurve,
		Swaps: map[string]SwapClassifier{
			"exchange(int128,int128,uint256,uint256)":            callerIsRecipient,
			"exchange_underlying(int128,int128,uint256,uint256)": callerIsRecipient,
		},
	},
}
