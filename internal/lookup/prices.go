package lookup

import (
	"errors"
	"time"

	"mev-inspector/internal/domain"
)

// ErrNoPriceData is returned when a token has no price samples.
var ErrNoPriceData = errors.New("no price data available")

// ClosestPrice returns the sample with the smallest absolute distance to target.
// No interpolation is performed. On a tie the earlier sample in the slice wins.
// Returns ErrNoPriceData if prices is empty.
func ClosestPrice(target time.Time, prices []*domain.Price) (*domain.Price, error) {
	if len(prices) == 0 {
		return nil, ErrNoPriceData
	}

	best := prices[0]
	bestDist := absDuration(prices[0].Timestamp.Sub(target))
	for _, p := range prices[1:] {
		if d := absDuration(p.Timestamp.Sub(target)); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
