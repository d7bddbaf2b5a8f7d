package strategy

import (
	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// TrendFollowing reads the slope of a long-horizon moving average: direction
// from the slope sign, conviction from its steepness relative to the
// historical slope dispersion in the window.
type TrendFollowing struct {
	maPeriod      int
	slopeLookback int
}

// NewTrendFollowing creates a new trend-following strategy with default configuration.
func NewTrendFollowing() Strategy {
	return &TrendFollowing{
		maPeriod:      50,
		slopeLookback: 10,
	}
}

// Name returns the name of the strategy.
func (t *TrendFollowing) Name() types.StrategyType {
	return types.StrategyTypeTrendFollow
}

// Config configures the trend-following strategy. Expected parameters:
// maPeriod (int), slopeLookback (int).
func (t *TrendFollowing) Config(params ...any) error {
	if len(params) < 2 {
		return errors.New(errors.ErrCodeMissingParameter,
			"Config expects 2 parameters: maPeriod (int), slopeLookback (int)")
	}

	period, ok := params[0].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for maPeriod parameter, expected int")
	}

	lookback, ok := params[1].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for slopeLookback parameter, expected int")
	}

	if period <= 0 || lookback <= 0 {
		return errors.New(errors.ErrCodeInvalidPeriod, "maPeriod and slopeLookback must both be positive")
	}

	t.maPeriod = period
	t.slopeLookback = lookback

	return nil
}

// MinBars implements Strategy. The window must cover the MA period plus
// enough extra bars to sample a population of slopes for normalization.
func (t *TrendFollowing) MinBars() int {
	return t.maPeriod + 2*t.slopeLookback
}

// SignalValue computes the MA slope over the lookback and normalizes it by
// the stdev of per-bar slope samples observed across the window.
func (t *TrendFollowing) SignalValue(window []types.Bar) (float64, error) {
	if len(window) < t.MinBars() {
		return 0, errors.NewInsufficientDataErrorf(t.MinBars(), len(window), "",
			"trend following needs %d bars, got %d", t.MinBars(), len(window))
	}

	prices := closes(window)

	// MA series over the tail of the window.
	maCount := len(prices) - t.maPeriod + 1
	mas := make([]float64, maCount)

	for i := 0; i < maCount; i++ {
		mas[i] = mean(prices[i : i+t.maPeriod])
	}

	slope := (mas[len(mas)-1] - mas[len(mas)-1-t.slopeLookback]) / float64(t.slopeLookback)

	// Per-bar slope samples across the available MA series.
	samples := make([]float64, 0, len(mas)-1)
	for i := 1; i < len(mas); i++ {
		samples = append(samples, mas[i]-mas[i-1])
	}

	dispersion := stdev(samples)
	if dispersion == 0 {
		return 0, nil
	}

	return types.ClampSignal(slope / dispersion), nil
}
