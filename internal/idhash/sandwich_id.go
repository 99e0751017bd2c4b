package idhash

import (
	"fmt"

	"github.com/google/uuid"

	"mev-inspector/internal/domain"
)

// sandwichNamespace scopes sandwich identifiers.
var sandwichNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("mev-inspector/sandwich"))

// ComputeSandwichID computes a deterministic sandwich id as a version 5 UUID.
// Formula: UUIDv5(block|frontrun_tx|frontrun_trace|backrun_tx|backrun_trace)
// Re-inspecting a block yields the same ids.
func ComputeSandwichID(blockNumber uint64, frontrun, backrun *domain.Swap) string {
	data := fmt.Sprintf("%d|%s|%s|%s|%s",
		blockNumber,
		frontrun.TransactionHash.Hex(),
		frontrun.TraceAddress.String(),
		backrun.TransactionHash.Hex(),
		backrun.TraceAddress.String(),
	)
	return uuid.NewSHA1(sandwichNamespace, []byte(data)).String()
}
