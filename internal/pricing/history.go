package pricing

// Series helpers over daily closing prices. All pure; callers decide how
// many points a computation needs and map shortfalls to ErrInsufficientData.

// Mean returns the arithmetic mean of points.
func Mean(points []float64) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += p
	}
	return sum / float64(len(points))
}

// MovingAverage returns the trailing window mean for each position with a
// full window; earlier positions are omitted, so the result has
// len(points)-window+1 entries (nil when the series is shorter than window).
func MovingAverage(points []float64, window int) []float64 {
	if window <= 0 || len(points) < window {
		return nil
	}
	out := make([]float64, 0, len(points)-window+1)
	var sum float64
	for i, p := range points {
		sum += p
		if i >= window {
			sum -= points[i-window]
		}
		if i >= window-1 {
			out = append(out, sum/float64(window))
		}
	}
	return out
}

// VolatilityBucket classifies a day-over-day percent change.
type VolatilityBucket string

const (
	VolatilityLow    VolatilityBucket = "low"
	VolatilityMedium VolatilityBucket = "medium"
	VolatilityHigh   VolatilityBucket = "high"
)

// Volatility maps an absolute percent change onto a [0,1] level with 5%
// treated as the saturation point, and buckets it.
func Volatility(percentChange float64) (float64, VolatilityBucket) {
	abs := percentChange
	if abs < 0 {
		abs = -abs
	}
	level := abs / 5
	if level > 1 {
		level = 1
	}
	switch {
	case level > 0.7:
		return level, VolatilityHigh
	case level > 0.3:
		return level, VolatilityMedium
	default:
		return level, VolatilityLow
	}
}
