package ingestion

import (
	"errors"
	"sort"

	"mev-inspector/internal/domain"
)

// ErrInvalidOrdering is returned when traces are not in execution order.
var ErrInvalidOrdering = errors.New("traces are not in execution order")

// SortTraces orders traces by (transaction_position ASC, trace_address ASC).
func SortTraces(traces []*domain.DecodedCallTrace) {
	sort.SliceStable(traces, func(i, j int) bool {
		return compareTraces(traces[i], traces[j]) < 0
	})
}

// ValidateTraceOrdering checks that traces are strictly ordered and unique.
// Returns ErrInvalidOrdering if not.
func ValidateTraceOrdering(traces []*domain.DecodedCallTrace) error {
	for i := 1; i < len(traces); i++ {
		if compareTraces(traces[i-1], traces[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// compareTraces returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (transaction_position ASC, trace_address ASC)
func compareTraces(a, b *domain.DecodedCallTrace) int {
	if a.TransactionPosition != b.TransactionPosition {
		if a.TransactionPosition < b.TransactionPosition {
			return -1
		}
		return 1
	}
	return a.TraceAddress.Compare(b.TraceAddress)
}
