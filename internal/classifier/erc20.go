package classifier

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"mev-inspector/internal/domain"
)

// ERC20ABI is the ABI name of a plain ERC20 token.
const ERC20ABI = "ERC20"

var (
	erc20Transfer = TransferClassifierFunc(func(trace *domain.DecodedCallTrace) (*domain.Transfer, error) {
		to, err := addressInput(trace, "recipient")
		if err != nil {
			return nil, err
		}
		amount, err := uintInput(trace, "amount")
		if err != nil {
			return nil, err
		}
		return newTransfer(trace, trace.From, to, amount), nil
	})

	erc20TransferFrom = TransferClassifierFunc(func(trace *domain.DecodedCallTrace) (*domain.Transfer, error) {
		from, err := addressInput(trace, "sender")
		if err != nil {
			return nil, err
		}
		to, err := addressInput(trace, "recipient")
		if err != nil {
			return nil, err
		}
		amount, err := uintInput(trace, "amount")
		if err != nil {
			return nil, err
		}
		return newTransfer(trace, from, to, amount), nil
	})
)

// ERC20Specs classifies token transfers regardless of protocol tag.
var ERC20Specs = []Spec{
	{
		AbiName: ERC20ABI,
		Transfers: map[string]TransferClassifier{
			"transfer(address,uint256)":             erc20Transfer,
			"transferFrom(address,address,uint256)": erc20TransferFrom,
		},
	},
}

func newTransfer(trace *domain.DecodedCallTrace, from, to common.Address, amount *big.Int) *domain.Transfer {
	return &domain.Transfer{
		BlockNumber:     trace.BlockNumber,
		TransactionHash: trace.TransactionHash,
		TraceAddress:    trace.TraceAddress,
		TokenAddress:    trace.To,
		From:            from,
		To:              to,
		Amount:          amount,
	}
}
