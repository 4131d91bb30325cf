package pricing

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"goldesk/internal/rates"
	"goldesk/internal/spot"
)

// Service owns the fetch chain: spot price, exchange rate, normalization and
// the cache slot. It is the only component that assembles Price values.
type Service struct {
	Rates *rates.Provider
	Spot  *spot.Chain
	Cache *Cache
	Norm  Normalizer
	Log   zerolog.Logger
}

// Current returns the cached normalized price, refreshing it when stale.
func (s *Service) Current(ctx context.Context) (Price, error) {
	return s.Cache.GetOrFetch(ctx, s.refresh)
}

// refresh runs the full provider chain. The exchange rate is re-fetched on
// every refresh even though the price is cached; FX drifts on its own clock.
func (s *Service) refresh(ctx context.Context) (Price, error) {
	spotUSD, deg := s.Spot.Spot(ctx)
	rate := s.Rates.Get(ctx)
	p := Price{
		SpotUSDPerOz: spotUSD,
		LocalPerGram: s.Norm.Normalize(spotUSD, rate),
		ComputedAt:   time.Now(),
		Degradation:  deg,
	}
	s.Log.Debug().
		Float64("spot_usd_per_oz", p.SpotUSDPerOz).
		Float64("local_per_gram", p.LocalPerGram).
		Str("degradation", deg.String()).
		Msg("price refreshed")
	return p, nil
}

// Effective returns the price to use for one session turn. A positive manual
// override bypasses the cache and every provider.
func (s *Service) Effective(ctx context.Context, override float64) (Price, error) {
	if override > 0 {
		return Price{LocalPerGram: override, ComputedAt: time.Now(), Manual: true}, nil
	}
	return s.Current(ctx)
}

// ChangeResult is the day-over-day movement in local currency per gram.
type ChangeResult struct {
	PerGram float64 // absolute change, local currency per gram
	Percent float64
	Rising  bool
}

// Change computes the day-over-day change from the primary source history.
// Needs at least two close points.
func (s *Service) Change(ctx context.Context) (ChangeResult, error) {
	closes, err := s.Spot.History(ctx, "5d")
	if err != nil {
		return ChangeResult{}, err
	}
	if len(closes) < 2 {
		return ChangeResult{}, ErrInsufficientData
	}
	rate := s.Rates.Get(ctx)
	today := closes[len(closes)-1]
	yesterday := closes[len(closes)-2]

	change := s.Norm.Normalize(today-yesterday, rate)
	base := s.Norm.Normalize(yesterday, rate)
	return ChangeResult{
		PerGram: change,
		Percent: change / base * 100,
		Rising:  change > 0,
	}, nil
}

// HistoryAverage returns the mean local per-gram price over a range such as
// "1mo" or "1y".
func (s *Service) HistoryAverage(ctx context.Context, rng string) (float64, error) {
	closes, err := s.Spot.History(ctx, rng)
	if err != nil {
		return 0, err
	}
	if len(closes) == 0 {
		return 0, ErrInsufficientData
	}
	rate := s.Rates.Get(ctx)
	return s.Norm.Normalize(Mean(closes), rate), nil
}

// TrendResult summarizes a historical window.
type TrendResult struct {
	ReturnPercent   float64 // first close to last close
	AveragePerGram  float64
	MA50PerGram     float64 // trailing 50-day moving average; 0 with fewer points
	VolatilityLevel float64
	Volatility      VolatilityBucket
}

// Trend computes the window return, average price, trailing moving average
// and a volatility bucket from the latest day-over-day move.
func (s *Service) Trend(ctx context.Context, rng string) (TrendResult, error) {
	closes, err := s.Spot.History(ctx, rng)
	if err != nil {
		return TrendResult{}, err
	}
	if len(closes) < 2 {
		return TrendResult{}, ErrInsufficientData
	}
	rate := s.Rates.Get(ctx)

	first := s.Norm.Normalize(closes[0], rate)
	last := s.Norm.Normalize(closes[len(closes)-1], rate)
	prev := s.Norm.Normalize(closes[len(closes)-2], rate)

	var ma50 float64
	if ma := MovingAverage(closes, 50); len(ma) > 0 {
		ma50 = s.Norm.Normalize(ma[len(ma)-1], rate)
	}

	dayPercent := (last - prev) / prev * 100
	level, bucket := Volatility(dayPercent)
	return TrendResult{
		ReturnPercent:   (last - first) / first * 100,
		AveragePerGram:  s.Norm.Normalize(Mean(closes), rate),
		MA50PerGram:     ma50,
		VolatilityLevel: level,
		Volatility:      bucket,
	}, nil
}
