package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Swap is the canonical record of one token exchange against a pool.
// Swaps are immutable once produced by the extractor.
type Swap struct {
	AbiName             string          `json:"abi_name"`
	TransactionHash     common.Hash     `json:"transaction_hash"`
	TransactionPosition int             `json:"transaction_position"`
	BlockNumber         uint64          `json:"block_number"`
	TraceAddress        TraceAddress    `json:"trace_address"`
	ContractAddress     common.Address  `json:"contract_address"`
	From                common.Address  `json:"from_address"`
	To                  common.Address  `json:"to_address"`
	TokenInAddress      common.Address  `json:"token_in_address"`
	TokenInAmount       *big.Int        `json:"token_in_amount"`
	TokenOutAddress     common.Address  `json:"token_out_address"`
	TokenOutAmount      *big.Int        `json:"token_out_amount"`
	Protocol            Protocol        `json:"protocol,omitempty"`
	Error               string          `json:"error,omitempty"`
	TransactionEOA      *common.Address `json:"transaction_eoa,omitempty"`
}

// CompareSwaps orders swaps by execution: transaction position, then trace address.
// Returns -1 if a < b, 0 if equal, 1 if a > b.
func CompareSwaps(a, b *Swap) int {
	if a.TransactionPosition != b.TransactionPosition {
		if a.TransactionPosition < b.TransactionPosition {
			return -1
		}
		return 1
	}
	return a.TraceAddress.Compare(b.TraceAddress)
}

// SamePair reports whether o trades the same direction through the same tokens.
func (s *Swap) SamePair(o *Swap) bool {
	return s.TokenInAddress == o.TokenInAddress && s.TokenOutAddress == o.TokenOutAddress
}

// InversePair reports whether o trades the exact reverse direction of s.
func (s *Swap) InversePair(o *Swap) bool {
	return s.TokenInAddress == o.TokenOutAddress && s.TokenOutAddress == o.TokenInAddress
}

// Transfer is an ERC20 token movement observed in a call trace.
type Transfer struct {
	BlockNumber     uint64         `json:"block_number"`
	TransactionHash common.Hash    `json:"transaction_hash"`
	TraceAddress    TraceAddress   `json:"trace_address"`
	TokenAddress    common.Address `json:"token_address"`
	From            common.Address `json:"from_address"`
	To              common.Address `json:"to_address"`
	Amount          *big.Int       `json:"amount"`
}
