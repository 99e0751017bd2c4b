// Package classifier maps decoded call traces onto protocol-specific swap
// and transfer semantics.
package classifier

import (
	"github.com/ethereum/go-ethereum/common"

	"mev-inspector/internal/domain"
)

// SwapClassifier determines the address that receives the output of a swap call.
// Protocols disagree on this: some report the recipient as a call argument,
// others treat the caller as the owner of the trade.
type SwapClassifier interface {
	SwapRecipient(trace *domain.DecodedCallTrace) (common.Address, error)
}

// SwapClassifierFunc adapts a function to SwapClassifier.
type SwapClassifierFunc func(trace *domain.DecodedCallTrace) (common.Address, error)

// SwapRecipient calls f(trace).
func (f SwapClassifierFunc) SwapRecipient(trace *domain.DecodedCallTrace) (common.Address, error) {
	return f(trace)
}

// TransferClassifier turns a token transfer call into a Transfer.
type TransferClassifier interface {
	Transfer(trace *domain.DecodedCallTrace) (*domain.Transfer, error)
}

// TransferClassifierFunc adapts a function to TransferClassifier.
type TransferClassifierFunc func(trace *domain.DecodedCallTrace) (*domain.Transfer, error)

// Transfer calls f(trace).
func (f TransferClassifierFunc) Transfer(trace *domain.DecodedCallTrace) (*domain.Transfer, error) {
	return f(trace)
}

// Spec declares the classifiers for one contract ABI of one protocol.
// An empty Protocol matches traces of any protocol (used for ERC20).
type Spec struct {
	AbiName   string
	Protocol  domain.Protocol
	Swaps     map[string]SwapClassifier     // function signature -> classifier
	Transfers map[string]TransferClassifier // function signature -> classifier
}

type specKey struct {
	protocol  domain.Protocol
	abiName   string
	signature string
}

// Registry dispatches traces to classifiers by (protocol, ABI name, function signature).
// A Registry is read-only after construction and safe for concurrent use.
type Registry struct {
	swaps     map[specKey]SwapClassifier
	transfers map[specKey]TransferClassifier
}

// NewRegistry creates a registry from the given specs.
func NewRegistry(specs ...Spec) *Registry {
	r := &Registry{
		swaps:     make(map[specKey]SwapClassifier),
		transfers: make(map[specKey]TransferClassifier),
	}
	for _, s := range specs {
		r.register(s)
	}
	return r
}

// NewDefaultRegistry creates a registry with every built-in protocol spec.
func NewDefaultRegistry() *Registry {
	return NewRegistry(DefaultSpecs()...)
}

// DefaultSpecs returns the built-in protocol specs.
func DefaultSpecs() []Spec {
	var specs []Spec
	specs = append(specs, ERC20Specs...)
	specs = append(specs, UniswapSpecs...)
	specs = append(specs, BalancerSpecs...)
	specs = append(specs, CurveSpecs...)
	return specs
}

func (r *Registry) register(s Spec) {
	for sig, c := range s.Swaps {
		r.swaps[specKey{s.Protocol, s.AbiName, sig}] = c
	}
	for sig, c := range s.Transfers {
		r.transfers[specKey{s.Protocol, s.AbiName, sig}] = c
	}
}

// SwapClassifier returns the swap classifier registered for the trace, if any.
func (r *Registry) SwapClassifier(trace *domain.DecodedCallTrace) (SwapClassifier, bool) {
	c, ok := r.swaps[specKey{trace.Protocol, trace.AbiName, trace.FunctionSignature}]
	if !ok {
		c, ok = r.swaps[specKey{"", trace.AbiName, trace.FunctionSignature}]
	}
	return c, ok
}

// TransferClassifier returns the transfer classifier registered for the trace, if any.
func (r *Registry) TransferClassifier(trace *domain.DecodedCallTrace) (TransferClassifier, bool) {
	c, ok := r.transfers[specKey{trace.Protocol, trace.AbiName, trace.FunctionSignature}]
	if !ok {
		c, ok = r.transfers[specKey{"", trace.AbiName, trace.FunctionSignature}]
	}
	return c, ok
}

// IsSwap reports whether the trace matches a registered swap classifier.
func (r *Registry) IsSwap(trace *domain.DecodedCallTrace) bool {
	_, ok := r.SwapClassifier(trace)
	return ok
}

// Len returns the number of registered (protocol, abi, signature) entries.
func (r *Registry) Len() int {
	return len(r.swaps) + len(r.transfers)
}
