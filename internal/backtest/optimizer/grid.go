// Package optimizer searches a Cartesian parameter grid by running one full
// independent backtest per combination.
package optimizer

import (
	"sort"

	enginev1 "github.com/tidemark-lab/tidemark/internal/backtest/engine/engine_v1"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// Grid maps parameter names to the candidate values to try. Unknown names
// are rejected when combinations are applied.
type Grid map[string][]float64

// Combination is one assignment of a value to every grid parameter.
type Combination map[string]float64

// Enumerate expands the grid into its full Cartesian product. Parameter
// names are iterated in sorted order so the expansion is deterministic for
// a given grid.
func (g Grid) Enumerate() ([]Combination, error) {
	if len(g) == 0 {
		return nil, errors.New(errors.ErrCodeOptimizerEmptyGrid, "parameter grid is empty")
	}

	names := make([]string, 0, len(g))

	for name, values := range g {
		if len(values) == 0 {
			return nil, errors.Newf(errors.ErrCodeOptimizerEmptyGrid, "parameter %q has no values", name)
		}

		names = append(names, name)
	}

	sort.Strings(names)

	combos := []Combination{{}}

	for _, name := range names {
		next := make([]Combination, 0, len(combos)*len(g[name]))

		for _, combo := range combos {
			for _, value := range g[name] {
				expanded := make(Combination, len(combo)+1)
				for k, v := range combo {
					expanded[k] = v
				}

				expanded[name] = value
				next = append(next, expanded)
			}
		}

		combos = next
	}

	return combos, nil
}

// Apply overlays a combination onto a copy of the base config. The base is
// never mutated; every run gets an independent config.
func Apply(base enginev1.BacktestEngineV1Config, combo Combination) (enginev1.BacktestEngineV1Config, error) {
	cfg := base

	for name, value := range combo {
		switch name {
		case "max_position_fraction":
			cfg.MaxPositionFraction = value
		case "commission_rate":
			cfg.CommissionRate = value
		case "slippage_rate":
			cfg.SlippageRate = value
		case "buy_threshold":
			cfg.Thresholds.Buy = value
		case "sell_threshold":
			cfg.Thresholds.Sell = value
		case "weight_technical":
			cfg.Weights.Technical = value
		case "weight_strategy":
			cfg.Weights.Strategy = value
		case "weight_sentiment":
			cfg.Weights.Sentiment = value
		case "weight_ml":
			cfg.Weights.ML = value
		case "rsi_period":
			cfg.Indicators.RSIPeriod = int(value)
		case "rsi_lower_bound":
			cfg.Indicators.RSILowerBound = value
		case "rsi_upper_bound":
			cfg.Indicators.RSIUpperBound = value
		case "macd_fast_period":
			cfg.Indicators.MACDFastPeriod = int(value)
		case "macd_slow_period":
			cfg.Indicators.MACDSlowPeriod = int(value)
		case "macd_signal_period":
			cfg.Indicators.MACDSignalPeriod = int(value)
		case "bb_period":
			cfg.Indicators.BBPeriod = int(value)
		case "bb_std_dev":
			cfg.Indicators.BBStdDev = value
		case "ma_short_period":
			cfg.Indicators.MAShortPeriod = int(value)
		case "ma_long_period":
			cfg.Indicators.MALongPeriod = int(value)
		case "volume_period":
			cfg.Indicators.VolumePeriod = int(value)
		case "scalping_horizon":
			cfg.Strategies.ScalpingHorizon = int(value)
		case "swing_short_period":
			cfg.Strategies.SwingShortPeriod = int(value)
		case "swing_long_period":
			cfg.Strategies.SwingLongPeriod = int(value)
		case "trend_ma_period":
			cfg.Strategies.TrendMAPeriod = int(value)
		case "reversion_period":
			cfg.Strategies.ReversionPeriod = int(value)
		case "reversion_z_threshold":
			cfg.Strategies.ReversionZThreshold = value
		default:
			return cfg, errors.Newf(errors.ErrCodeOptimizerUnknownParam, "unknown grid parameter %q", name)
		}
	}

	return cfg, nil
}
