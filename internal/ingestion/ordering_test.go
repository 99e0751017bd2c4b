package ingestion

import (
	"errors"
	"testing"

	"mev-inspector/internal/domain"
)

func TestSortTraces(t *testing.T) {
	// Intentionally unordered traces
	traces := []*domain.DecodedCallTrace{
		{TransactionPosition: 2, TraceAddress: domain.TraceAddress{}},
		{TransactionPosition: 1, TraceAddress: domain.TraceAddress{1}},
		{TransactionPosition: 1, TraceAddress: domain.TraceAddress{0, 3}},
		{TransactionPosition: 1, TraceAddress: domain.TraceAddress{}},
		{TransactionPosition: 1, TraceAddress: domain.TraceAddress{0}},
	}

	SortTraces(traces)

	expected := []struct {
		position int
		trace    string
	}{
		{1, ""},
		{1, "0"},
		{1, "0,3"},
		{1, "1"},
		{2, ""},
	}

	for i, exp := range expected {
		if traces[i].TransactionPosition != exp.position || traces[i].TraceAddress.String() != exp.trace {
			t.Errorf("Index %d: got (%d, %q), want (%d, %q)",
				i, traces[i].TransactionPosition, traces[i].TraceAddress.String(), exp.position, exp.trace)
		}
	}

	if err := ValidateTraceOrdering(traces); err != nil {
		t.Errorf("sorted traces should validate: %v", err)
	}
}

func TestValidateTraceOrdering_Duplicate(t *testing.T) {
	traces := []*domain.DecodedCallTrace{
		{TransactionPosition: 0, TraceAddress: domain.TraceAddress{0}},
		{TransactionPosition: 0, TraceAddress: domain.TraceAddress{0}},
	}

	if err := ValidateTraceOrdering(traces); !errors.Is(err, ErrInvalidOrdering) {
		t.Errorf("expected ErrInvalidOrdering, got %v", err)
	}
}
