package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Protocol tags the DEX family a decoded trace belongs to.
type Protocol string

// Protocol values.
const (
	ProtocolUniswapV2  Protocol = "uniswap_v2"
	ProtocolUniswapV3  Protocol = "uniswap_v3"
	ProtocolSushiswap  Protocol = "sushiswap"
	ProtocolBalancerV1 Protocol = "balancer_v1"
	ProtocolCurve      Protocol = "curve"
)

// TraceAddress is the path of call-tree indices identifying one nested call
// within a transaction. Lexicographic order over the path is call order.
type TraceAddress []int

// Compare returns -1, 0 or 1. On a shared prefix the shorter path sorts first.
func (a TraceAddress) Compare(b TraceAddress) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// HasPrefix reports whether prefix is an ancestor of (or equal to) a.
func (a TraceAddress) HasPrefix(prefix TraceAddress) bool {
	if len(prefix) > len(a) {
		return false
	}
	for i := range prefix {
		if a[i] != prefix[i] {
			return false
		}
	}
	return true
}

// IsRoot reports whether the address is the top-level call of a transaction.
func (a TraceAddress) IsRoot() bool {
	return len(a) == 0
}

// String renders the path as comma-separated indices, e.g. "0,1,3".
func (a TraceAddress) String() string {
	parts := make([]string, len(a))
	for i, v := range a {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// ParseTraceAddress parses the String form back into a TraceAddress.
func ParseTraceAddress(s string) (TraceAddress, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TraceAddress{}, nil
	}
	parts := strings.Split(s, ",")
	out := make(TraceAddress, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("parse trace address %q: %w", s, err)
		}
		out[i] = v
	}
	return out, nil
}

// DecodedCallTrace is one node of a transaction's call tree with its
// call data already decoded against a known ABI.
type DecodedCallTrace struct {
	BlockNumber         uint64         `json:"block_number"`
	TransactionHash     common.Hash    `json:"transaction_hash"`
	TransactionPosition int            `json:"transaction_position"`
	TraceAddress        TraceAddress   `json:"trace_address"`
	From                common.Address `json:"from_address"`
	To                  common.Address `json:"to_address"`
	FunctionName        string         `json:"function_name"`
	FunctionSignature   string         `json:"function_signature"`
	Inputs              map[string]any `json:"inputs"`
	Protocol            Protocol       `json:"protocol,omitempty"`
	AbiName             string         `json:"abi_name"`
	Error               string         `json:"error,omitempty"`
}
