package sandwich

import (
	"errors"
	"fmt"

	"mev-inspector/internal/lookup"
	"mev-inspector/internal/tokens"
)

// ErrorKind classifies a per-sandwich failure. The set is closed.
type ErrorKind string

// ErrorKind values.
const (
	KindUnresolvedToken   ErrorKind = "unresolved-token"
	KindMissingPrice      ErrorKind = "missing-price"
	KindMissingBlock      ErrorKind = "missing-block"
	KindChainFetchFailure ErrorKind = "chain-fetch-failure"
)

// Kinds lists every ErrorKind.
var Kinds = []ErrorKind{KindUnresolvedToken, KindMissingPrice, KindMissingBlock, KindChainFetchFailure}

// Error is a local failure for one sandwich. It never aborts a batch.
type Error struct {
	Kind       ErrorKind
	SandwichID string
	Err        error
}

func (e *Error) Error() string {
	if e.SandwichID == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("sandwich %s: %s: %v", e.SandwichID, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether a later pass may succeed without a configuration change.
// Tokens that are unknown without a chain failure stay unknown until a chain
// endpoint is configured or the token is loaded into storage.
func (e *Error) Retryable() bool {
	return e.Kind != KindUnresolvedToken
}

// tokenError wraps a token cache failure with the matching kind.
func tokenError(id string, err error) *Error {
	kind := KindUnresolvedToken
	if errors.Is(err, tokens.ErrChainFetch) {
		kind = KindChainFetchFailure
	}
	return &Error{Kind: kind, SandwichID: id, Err: err}
}

// priceError wraps a price lookup failure.
func priceError(id string, err error) *Error {
	if !errors.Is(err, lookup.ErrNoPriceData) {
		err = fmt.Errorf("%w: %w", lookup.ErrNoPriceData, err)
	}
	return &Error{Kind: KindMissingPrice, SandwichID: id, Err: err}
}
