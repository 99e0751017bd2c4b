package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Token is an ERC20 contract together with its decimal precision.
type Token struct {
	Address  common.Address
	Decimals int
}

// AddressKey returns the lowercased hex form used as the persisted identity of an address.
func AddressKey(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
