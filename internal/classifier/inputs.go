package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"mev-inspector/internal/domain"
)

// ErrMalformedInput is returned when a decoded argument is missing or has an unexpected type.
var ErrMalformedInput = errors.New("malformed decoded input")

// addressInput reads an address argument from a decoded trace.
func addressInput(trace *domain.DecodedCallTrace, name string) (common.Address, error) {
	v, ok := trace.Inputs[name]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: missing %q", ErrMalformedInput, name)
	}
	switch a := v.(type) {
	case common.Address:
		return a, nil
	case *common.Address:
		if a != nil {
			return *a, nil
		}
	case string:
		if common.IsHexAddress(a) {
			return common.HexToAddress(a), nil
		}
	}
	return common.Address{}, fmt.Errorf("%w: %q is not an address (%T)", ErrMalformedInput, name, v)
}

// uintInput reads an unsigned integer argument from a decoded trace.
func uintInput(trace *domain.DecodedCallTrace, name string) (*big.Int, error) {
	v, ok := trace.Inputs[name]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedInput, name)
	}
	var out *big.Int
	switch n := v.(type) {
	case *big.Int:
		if n != nil {
			out = new(big.Int).Set(n)
		}
	case json.Number:
		out, _ = new(big.Int).SetString(n.String(), 10)
	case string:
		out, _ = new(big.Int).SetString(n, 0)
	case int64:
		out = big.NewInt(n)
	case uint64:
		out = new(big.Int).SetUint64(n)
	case int:
		out = big.NewInt(int64(n))
	}
	if out == nil || out.Sign() < 0 {
		return nil, fmt.Errorf("%w: %q is not an unsigned integer (%T)", ErrMalformedInput, name, v)
	}
	return out, nil
}
