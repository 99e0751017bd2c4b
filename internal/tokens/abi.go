package tokens

import (
	"bytes"
	_ "embed"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed abis/erc20.json
var erc20JSON []byte

// erc20ABI is the subset of the ERC20 ABI used for metadata calls.
var erc20ABI abi.ABI

func init() {
	var err error
	erc20ABI, err = abi.JSON(bytes.NewReader(erc20JSON))
	if err != nil {
		panic(err)
	}
}
