// Package strategy implements the rule-based trading strategies and the
// engine that averages them into the strategy category signal.
package strategy

import (
	"math"

	"github.com/tidemark-lab/tidemark/internal/types"
)

// Strategy is a single rule-based strategy evaluated over a trailing bar
// window ending at the current bar.
type Strategy interface {
	// Name returns the name of the strategy.
	Name() types.StrategyType
	// Config configures the strategy parameters.
	Config(params ...any) error
	// MinBars returns the minimum window length the strategy needs.
	MinBars() int
	// SignalValue returns the strategy signal in [-1, 1].
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

func closes(window []types.Bar) []float64 {
	out := make([]float64, len(window))
	for i, b := range window {
		out[i] = b.Close
	}

	return out
}

// returns computes simple period-over-period returns of the close series.
func returns(prices []float64) []float64 {
	out := make([]float64, 0, len(prices)-1)

	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			out = append(out, 0)

			continue
		}

		out = append(out, prices[i]/prices[i-1]-1)
	}

	return out
}
