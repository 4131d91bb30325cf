// Package pricing turns the raw USD spot price into the local per-gram
// price and memoizes the result.
package pricing

import (
	"errors"
	"time"

	"goldesk/internal/spot"
)

var (
	// ErrInsufficientData means an algorithm needed more history points
	// than the source returned.
	ErrInsufficientData = errors.New("pricing: insufficient data")
)

// Price is a normalized price snapshot. It is immutable once created and is
// superseded, never mutated, on refresh.
type Price struct {
	SpotUSDPerOz float64          `json:"spot_usd_per_oz"`
	LocalPerGram float64          `json:"local_price_per_gram"`
	ComputedAt   time.Time        `json:"computed_at"`
	Degradation  spot.Degradation `json:"-"`
	Manual       bool             `json:"manual,omitempty"`
}

// Normalizer converts USD per troy ounce into local currency per gram at a
// fixed purity. Pure arithmetic, no failure modes.
type Normalizer struct {
	OunceToGram  float64 // grams per troy ounce, 31.1035
	PurityFactor float64 // 21K fraction of 24K, 0.875
}

func (n Normalizer) Normalize(spotUSDPerOz, rate float64) float64 {
	return (spotUSDPerOz * rate / n.OunceToGram) * n.PurityFactor
}
