// Package sandwich detects sandwich attacks among a block's swaps, prices the
// attacker's profit and enriches stored sandwiches with decimal and fiat profit.
package sandwich

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"mev-inspector/internal/domain"
	"mev-inspector/internal/idhash"
	"mev-inspector/internal/observability"
)

// Canonical router contracts. A router is never the attacker.
var (
	UniswapV2Router = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	UniswapV3Router = common.HexToAddress("0x68b3465833fb72a70ecdf485e0e4c7bd8665fc45")
)

// DefaultRouters returns the built-in router set.
func DefaultRouters() []common.Address {
	return []common.Address{UniswapV2Router, UniswapV3Router}
}

// ParseRouters parses a comma-separated address list. Empty input yields the defaults.
func ParseRouters(s string) ([]common.Address, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultRouters(), nil
	}
	var out []common.Address
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !common.IsHexAddress(part) {
			return nil, fmt.Errorf("invalid router address %q", part)
		}
		out = append(out, common.HexToAddress(part))
	}
	return out, nil
}

// FindSandwiches returns the sandwiches among swaps in execution order.
//
// Swaps are sorted by (transaction position, trace address). Each swap may open
// at most one sandwich: later swaps on the same pool are scanned, skipping the
// opener's own transaction. Same-direction swaps to another recipient become
// victims; the first inverse swap back to the opener's recipient closes the
// sandwich if any victims were seen. Profit fields are left unset.
func FindSandwiches(swaps []*domain.Swap, routers []common.Address) []*domain.Sandwich {
	ordered := make([]*domain.Swap, len(swaps))
	copy(ordered, swaps)
	sort.SliceStable(ordered, func(i, j int) bool {
		return domain.CompareSwaps(ordered[i], ordered[j]) < 0
	})

	isRouter := make(map[common.Address]struct{}, len(routers))
	for _, r := range routers {
		isRouter[r] = struct{}{}
	}

	var out []*domain.Sandwich
	for i, front := range ordered {
		if _, ok := isRouter[front.To]; ok {
			continue
		}
		if s := sandwichStartingWith(front, ordered[i+1:]); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func sandwichStartingWith(front *domain.Swap, rest []*domain.Swap) *domain.Sandwich {
	sandwicher := front.To
	var victims []*domain.Swap

	for _, other := range rest {
		if other.TransactionHash == front.TransactionHash {
			continue
		}
		if other.ContractAddress != front.ContractAddress {
			continue
		}

		switch {
		case front.SamePair(other) && other.To != sandwicher:
			victims = append(victims, other)
		case front.InversePair(other) && other.To == sandwicher:
			if len(victims) == 0 {
				continue
			}
			return &domain.Sandwich{
				BlockNumber:        front.BlockNumber,
				SandwicherAddress:  sandwicher,
				FrontrunSwap:       front,
				BackrunSwap:        other,
				SandwichedSwaps:    victims,
				ProfitTokenAddress: front.TokenInAddress,
			}
		}
	}
	return nil
}

// Detector finds sandwiches and fills their id and raw profit.
type Detector struct {
	routers []common.Address
	profit  *ProfitCalculator
	logger  *zap.SugaredLogger
	metrics *observability.Metrics
}

// DetectorOptions configures a Detector.
type DetectorOptions struct {
	// Routers overrides the router set. Nil uses DefaultRouters.
	Routers []common.Address
	Logger  *zap.SugaredLogger
	Metrics *observability.Metrics
}

// NewDetector creates a Detector pricing profit through tokens.
func NewDetector(tokens TokenResolver, opts DetectorOptions) *Detector {
	if opts.Routers == nil {
		opts.Routers = DefaultRouters()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Detector{
		routers: opts.Routers,
		profit:  NewProfitCalculator(tokens),
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// Detect returns the sandwiches among swaps with id and raw profit set.
// Unresolvable tokens yield zero profit and are logged, never returned as errors.
func (d *Detector) Detect(ctx context.Context, swaps []*domain.Swap) []*domain.Sandwich {
	found := FindSandwiches(swaps, d.routers)
	for _, s := range found {
		s.ID = idhash.ComputeSandwichID(s.BlockNumber, s.FrontrunSwap, s.BackrunSwap)

		profit, err := d.profit.Compute(ctx, s.FrontrunSwap, s.BackrunSwap)
		if err != nil {
			var serr *Error
			kind := KindUnresolvedToken
			if errors.As(err, &serr) {
				kind = serr.Kind
			}
			d.logger.Warnw("sandwich profit unpriced",
				"sandwich", s.ID,
				"block", s.BlockNumber,
				"kind", string(kind),
				"error", err,
			)
		}
		s.ProfitAmount = profit
	}
	d.metrics.RecordSandwichesDetected(len(found))
	return found
}
