package indicator

import (
	"math"

	"github.com/tidemark-lab/tidemark/internal/types"
)

// Indicator is a single technical study computed over a trailing bar window.
// The window always ends at the current bar; implementations must never look
// past the last element.
type Indicator interface {
	// Name returns the name of the indicator.
	Name() types.IndicatorType
	// Config configures the indicator parameters. Each implementation
	// documents its expected parameter list.
	Config(params ...any) error
	// MinBars returns the minimum window length the indicator needs.
	MinBars() int
	// RawValue returns the indicator's raw reading for the window.
	RawValue(window []types.Bar) (float64, error)
	// SignalValue maps the raw reading into [-1, 1] where positive is
	// bullish and negative is bearish.
	SignalValue(window []types.Bar) (float64, error)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// stdev is the sample standard deviation (n-1 denominator).
func stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	m := mean(values)

	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(values)-1))
}

// ema computes the exponential moving average series for the given period.
// The first period values are seeded with the simple average.
func ema(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}

	out := make([]float64, len(values))
	alpha := 2.0 / (float64(period) + 1.0)

	seed := mean(values[:period])
	for i := 0; i < period; i++ {
		out[i] = seed
	}

	for i := period; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}

	return out
}

func closes(window []types.Bar) []float64 {
	out := make([]float64, len(window))
	for i, b := range window {
		out[i] = b.Close
	}

	return out
}
