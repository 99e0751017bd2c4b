package classifier

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"mev-inspector/internal/domain"
)

// ErrIncompleteSwap is returned when a swap call matched a classifier but the
// token transfers that price it could not be found.
var ErrIncompleteSwap = errors.New("swap transfers not found")

// ClassifySwap builds a Swap from a swap call trace.
//
// prior holds the transfers executed earlier in the same transaction and child
// holds the transfers executed inside the swap call. Token-in is the last
// transfer into the pool; token-out is the single transfer from the pool to
// the recipient inside the call.
//
// Returns (nil, nil) if no swap classifier is registered for the trace.
func (r *Registry) ClassifySwap(trace *domain.DecodedCallTrace, prior, child []*domain.Transfer) (*domain.Swap, error) {
	c, ok := r.SwapClassifier(trace)
	if !ok {
		return nil, nil
	}

	recipient, err := c.SwapRecipient(trace)
	if err != nil {
		return nil, fmt.Errorf("swap recipient: %w", err)
	}

	pool := trace.To

	var toPool []*domain.Transfer
	if trace.AbiName == BalancerV1PoolABI {
		// Balancer pulls the input token inside the swap call.
		toPool = filterTransfers(child, nil, &pool)
	}
	if len(toPool) == 0 {
		toPool = filterTransfers(prior, nil, &pool)
	}
	if len(toPool) == 0 {
		toPool = filterTransfers(child, nil, &pool)
	}
	if len(toPool) == 0 {
		return nil, fmt.Errorf("%w: no transfer into pool %s", ErrIncompleteSwap, pool.Hex())
	}

	out := filterTransfers(child, &pool, &recipient)
	if len(out) != 1 {
		return nil, fmt.Errorf("%w: %d transfers from pool %s to %s", ErrIncompleteSwap, len(out), pool.Hex(), recipient.Hex())
	}

	in := toPool[len(toPool)-1]
	return &domain.Swap{
		AbiName:             trace.AbiName,
		TransactionHash:     trace.TransactionHash,
		TransactionPosition: trace.TransactionPosition,
		BlockNumber:         trace.BlockNumber,
		TraceAddress:        trace.TraceAddress,
		ContractAddress:     pool,
		From:                trace.From,
		To:                  recipient,
		TokenInAddress:      in.TokenAddress,
		TokenInAmount:       in.Amount,
		TokenOutAddress:     out[0].TokenAddress,
		TokenOutAmount:      out[0].Amount,
		Protocol:            trace.Protocol,
		Error:               trace.Error,
	}, nil
}

// filterTransfers keeps transfers matching the optional from and to addresses, preserving order.
func filterTransfers(transfers []*domain.Transfer, from, to *common.Address) []*domain.Transfer {
	var out []*domain.Transfer
	for _, t := range transfers {
		if from != nil && t.From != *from {
			continue
		}
		if to != nil && t.To != *to {
			continue
		}
		out = append(out, t)
	}
	return out
}
