package idhash

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"mev-inspector/internal/domain"
)

func TestComputeSandwichID_Deterministic(t *testing.T) {
	front := &domain.Swap{TransactionHash: common.HexToHash("0x01"), TraceAddress: domain.TraceAddress{0}}
	back := &domain.Swap{TransactionHash: common.HexToHash("0x03"), TraceAddress: domain.TraceAddress{0, 2}}

	id1 := ComputeSandwichID(100, front, back)
	id2 := ComputeSandwichID(100, front, back)

	if id1 != id2 {
		t.Errorf("IDs should be deterministic: %s != %s", id1, id2)
	}

	parsed, err := uuid.Parse(id1)
	if err != nil {
		t.Fatalf("ID is not a UUID: %v", err)
	}
	if parsed.Version() != 5 {
		t.Errorf("expected version 5 UUID, got %d", parsed.Version())
	}
}

func TestComputeSandwichID_DifferentInputs(t *testing.T) {
	front := &domain.Swap{TransactionHash: common.HexToHash("0x01"), TraceAddress: domain.TraceAddress{0}}
	back := &domain.Swap{TransactionHash: common.HexToHash("0x03"), TraceAddress: domain.TraceAddress{0}}
	otherBack := &domain.Swap{TransactionHash: common.HexToHash("0x03"), TraceAddress: domain.TraceAddress{1}}

	base := ComputeSandwichID(100, front, back)

	if base == ComputeSandwichID(101, front, back) {
		t.Error("different block should produce different ID")
	}
	if base == ComputeSandwichID(100, front, otherBack) {
		t.Error("different backrun trace should produce different ID")
	}
}
