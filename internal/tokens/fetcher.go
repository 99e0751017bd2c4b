package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

// DecimalsFetcher reads a token's decimal precision from the chain.
type DecimalsFetcher interface {
	Decimals(ctx context.Context, address common.Address) (int, error)
}

// ERC20Fetcher calls decimals() on ERC20 contracts.
type ERC20Fetcher struct {
	caller  ethereum.ContractCaller
	timeout time.Duration
}

// NewERC20Fetcher creates a fetcher over any contract caller (e.g. *ethclient.Client).
// A zero timeout defaults to 10s per call.
func NewERC20Fetcher(caller ethereum.ContractCaller, timeout time.Duration) *ERC20Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ERC20Fetcher{caller: caller, timeout: timeout}
}

// Decimals returns the decimals() value of the contract at address, read at the latest block.
func (f *ERC20Fetcher) Decimals(ctx context.Context, address common.Address) (int, error) {
	data, err := erc20ABI.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("pack decimals call: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	out, err := f.caller.CallContract(ctx, ethereum.CallMsg{To: &address, Data: data}, nil)
	if err != nil {
		return 0, fmt.Errorf("eth_call decimals: %w", err)
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("eth_call decimals: empty result from %s", address.Hex())
	}

	values, err := erc20ABI.Unpack("decimals", out)
	if err != nil {
		return 0, fmt.Errorf("unpack decimals: %w", err)
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unpack decimals: unexpected type %T", values[0])
	}
	return int(decimals), nil
}

// ErrNoChainAccess is returned by the offline fetcher.
var ErrNoChainAccess = errors.New("no chain access configured")

// OfflineFetcher never reaches the chain. Tokens absent from storage stay unknown.
type OfflineFetcher struct{}

// Decimals always fails with ErrNoChainAccess.
func (OfflineFetcher) Decimals(context.Context, common.Address) (int, error) {
	return 0, ErrNoChainAccess
}
