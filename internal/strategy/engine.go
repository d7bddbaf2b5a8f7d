package strategy

import (
	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// Params holds the tunable parameters for the four built-in strategies.
type Params struct {
	ScalpingHorizon       int     `yaml:"scalping_horizon" json:"scalping_horizon" validate:"gte=2"`
	ScalpingBandWidth     float64 `yaml:"scalping_band_width" json:"scalping_band_width" validate:"gt=0"`
	SwingShortPeriod      int     `yaml:"swing_short_period" json:"swing_short_period" validate:"gt=0"`
	SwingLongPeriod       int     `yaml:"swing_long_period" json:"swing_long_period" validate:"gt=0"`
	SwingMomentumLookback int     `yaml:"swing_momentum_lookback" json:"swing_momentum_lookback" validate:"gt=0"`
	TrendMAPeriod         int     `yaml:"trend_ma_period" json:"trend_ma_period" validate:"gt=0"`
	TrendSlopeLookback    int     `yaml:"trend_slope_lookback" json:"trend_slope_lookback" validate:"gt=0"`
	ReversionPeriod       int     `yaml:"reversion_period" json:"reversion_period" validate:"gt=1"`
	ReversionZThreshold   float64 `yaml:"reversion_z_threshold" json:"reversion_z_threshold" validate:"gt=0"`
}

// DefaultParams returns the standard strategy parameters.
func DefaultParams() Params {
	return Params{
		ScalpingHorizon:       7,
		ScalpingBandWidth:     1.0,
		SwingShortPeriod:      10,
		SwingLongPeriod:       30,
		SwingMomentumLookback: 5,
		TrendMAPeriod:         50,
		TrendSlopeLookback:    10,
		ReversionPeriod:       20,
		ReversionZThreshold:   1.5,
	}
}

// Engine computes the strategy category signal: the unweighted average of
// the four strategy signals over the current window.
type Engine struct {
	strategies []Strategy
	minBars    int
}

// NewEngine builds an engine with the four built-in strategies configured
// from params.
func NewEngine(params Params) (*Engine, error) {
	scalping := NewScalping()
	if err := scalping.Config(params.ScalpingHorizon, params.ScalpingBandWidth); err != nil {
		return nil, err
	}

	swing := NewSwing()
	if err := swing.Config(params.SwingShortPeriod, params.SwingLongPeriod, params.SwingMomentumLookback); err != nil {
		return nil, err
	}

	trend := NewTrendFollowing()
	if err := trend.Config(params.TrendMAPeriod, params.TrendSlopeLookback); err != nil {
		return nil, err
	}

	reversion := NewMeanReversion()
	if err := reversion.Config(params.ReversionPeriod, params.ReversionZThreshold); err != nil {
		return nil, err
	}

	strategies := []Strategy{scalping, swing, trend, reversion}

	minBars := 0

	for _, st := range strategies {
		if st.MinBars() > minBars {
			minBars = st.MinBars()
		}
	}

	return &Engine{
		strategies: strategies,
		minBars:    minBars,
	}, nil
}

// MinBars returns the longest warmup window across all strategies.
func (e *Engine) MinBars() int {
	return e.minBars
}

// SignalValues returns each strategy's signal for the window, keyed by name.
func (e *Engine) SignalValues(window []types.Bar) (map[types.StrategyType]float64, error) {
	if len(window) < e.minBars {
		return nil, errors.NewInsufficientDataErrorf(e.minBars, len(window), "",
			"strategy engine needs %d bars, got %d", e.minBars, len(window))
	}

	values := make(map[types.StrategyType]float64, len(e.strategies))

	for _, st := range e.strategies {
		v, err := st.SignalValue(window)
		if err != nil {
			return nil, err
		}

		values[st.Name()] = v
	}

	return values, nil
}

// CategorySignal returns the unweighted average of the four strategy
// signals, always within [-1, 1].
func (e *Engine) CategorySignal(window []types.Bar) (types.CategorySignal, error) {
	values, err := e.SignalValues(window)
	if err != nil {
		return types.CategorySignal{}, err
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return types.CategorySignal{
		Category: types.CategoryStrategy,
		Value:    types.ClampSignal(sum / float64(len(values))),
		Time:     window[len(window)-1].Time,
	}, nil
}
