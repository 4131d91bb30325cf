// Package spot fetches the commodity spot price in USD per troy ounce.
package spot

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// ErrNoHistory is returned when the configured primary source cannot serve
// a historical series.
var ErrNoHistory = errors.New("spot: primary source does not serve history")

// Source is a single upstream for the current spot price.
type Source interface {
	Name() string
	Spot(ctx context.Context) (float64, error)
}

// Historical is implemented by sources that can serve a series of daily
// closing prices. Only the primary market-data source supports it.
type Historical interface {
	History(ctx context.Context, rng string) ([]float64, error)
}

// Degradation reports which stage of the fetch chain produced the price.
type Degradation int

const (
	DegradedNone     Degradation = iota // primary source answered
	DegradedFallback                    // secondary source answered
	DegradedDefault                     // hardcoded constant substituted
)

func (d Degradation) String() string {
	switch d {
	case DegradedNone:
		return "none"
	case DegradedFallback:
		return "fallback"
	default:
		return "default"
	}
}

// Chain tries the primary source, then the fallback, then substitutes the
// default constant. Spot never returns an error; every failure path ends in
// a usable number, and the Degradation value says which stage degraded.
type Chain struct {
	Primary  Source
	Fallback Source
	Default  float64
	Log      zerolog.Logger
}

func (c *Chain) Spot(ctx context.Context) (float64, Degradation) {
	v, err := c.Primary.Spot(ctx)
	if err == nil {
		return v, DegradedNone
	}
	c.Log.Warn().Err(err).Str("source", c.Primary.Name()).Msg("primary spot source failed, trying fallback")

	if c.Fallback != nil {
		v, err = c.Fallback.Spot(ctx)
		if err == nil {
			return v, DegradedFallback
		}
		c.Log.Error().Err(err).Str("source", c.Fallback.Name()).Float64("default", c.Default).
			Msg("fallback spot source failed, substituting default")
	}
	return c.Default, DegradedDefault
}

// History returns daily closes from the primary source for the given range
// (e.g. "5d", "1y"). Unlike Spot there is no degradation path: callers turn
// the error into an insufficient-data answer.
func (c *Chain) History(ctx context.Context, rng string) ([]float64, error) {
	h, ok := c.Primary.(Historical)
	if !ok {
		return nil, ErrNoHistory
	}
	return h.History(ctx, rng)
}
