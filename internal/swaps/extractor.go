// Package swaps extracts canonical swaps from a block's decoded call traces.
package swaps

import (
	"errors"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"mev-inspector/internal/classifier"
	"mev-inspector/internal/domain"
	"mev-inspector/internal/observability"
)

// Extractor walks a block's traces and collects one Swap per classified swap call.
type Extractor struct {
	registry *classifier.Registry
	logger   *zap.SugaredLogger
	metrics  *observability.Metrics
}

// NewExtractor creates an Extractor. A nil logger or metrics is allowed.
func NewExtractor(registry *classifier.Registry, logger *zap.SugaredLogger, metrics *observability.Metrics) *Extractor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Extractor{registry: registry, logger: logger, metrics: metrics}
}

// Extract returns the swaps found in traces. No ordering is guaranteed.
// Traces that are not swaps are dropped, as are swap calls whose pricing
// transfers cannot be resolved.
func (e *Extractor) Extract(traces []*domain.DecodedCallTrace) []*domain.Swap {
	var out []*domain.Swap
	for _, txTraces := range groupByTransaction(traces) {
		out = append(out, e.extractTransaction(txTraces)...)
	}
	e.metrics.RecordSwapsExtracted(len(out))
	return out
}

func (e *Extractor) extractTransaction(traces []*domain.DecodedCallTrace) []*domain.Swap {
	var eoa *common.Address
	var transfers []*domain.Transfer

	for _, t := range traces {
		if t.TraceAddress.IsRoot() {
			from := t.From
			eoa = &from
		}
		c, ok := e.registry.TransferClassifier(t)
		if !ok {
			continue
		}
		e.metrics.RecordTraceClassified("transfer")
		transfer, err := c.Transfer(t)
		if err != nil {
			e.logger.Debugw("skip transfer", "tx", t.TransactionHash.Hex(), "trace", t.TraceAddress.String(), "error", err)
			continue
		}
		transfers = append(transfers, transfer)
	}

	var swaps []*domain.Swap
	for _, t := range traces {
		if !e.registry.IsSwap(t) {
			continue
		}
		e.metrics.RecordTraceClassified("swap")

		prior, child := splitTransfers(transfers, t.TraceAddress)
		swap, err := e.registry.ClassifySwap(t, prior, child)
		if err != nil {
			reason := "malformed"
			if errors.Is(err, classifier.ErrIncompleteSwap) {
				reason = "incomplete"
			}
			e.metrics.RecordSwapSkipped(reason)
			e.logger.Debugw("skip swap", "tx", t.TransactionHash.Hex(), "trace", t.TraceAddress.String(), "reason", reason, "error", err)
			continue
		}
		swap.TransactionEOA = eoa
		swaps = append(swaps, swap)
	}
	return swaps
}

// groupByTransaction buckets traces per transaction, each bucket in call order.
// Buckets are returned in transaction position order.
func groupByTransaction(traces []*domain.DecodedCallTrace) [][]*domain.DecodedCallTrace {
	index := make(map[common.Hash]int)
	var groups [][]*domain.DecodedCallTrace
	for _, t := range traces {
		i, ok := index[t.TransactionHash]
		if !ok {
			i = len(groups)
			index[t.TransactionHash] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], t)
	}

	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool {
			return g[i].TraceAddress.Compare(g[j].TraceAddress) < 0
		})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i][0].TransactionPosition < groups[j][0].TransactionPosition
	})
	return groups
}

// splitTransfers returns the transfers executed before the call at addr and
// those executed inside it.
func splitTransfers(transfers []*domain.Transfer, addr domain.TraceAddress) (prior, child []*domain.Transfer) {
	for _, t := range transfers {
		switch {
		case len(t.TraceAddress) > len(addr) && t.TraceAddress.HasPrefix(addr):
			child = append(child, t)
		case t.TraceAddress.Compare(addr) < 0:
			prior = append(prior, t)
		}
	}
	return prior, child
}
