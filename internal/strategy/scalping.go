package strategy

import (
	"math"

	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// Scalping trades short-horizon breakouts: the cumulative return over the
// horizon is scored against a volatility-scaled band, and only moves beyond
// the band produce a signal.
type Scalping struct {
	horizon   int
	bandWidth float64
}

// NewScalping creates a new scalping strategy with default configuration.
func NewScalping() Strategy {
	return &Scalping{
		horizon:   7,
		bandWidth: 1.0,
	}
}

// Name returns the name of the strategy.
func (s *Scalping) Name() types.StrategyType {
	return types.StrategyTypeScalping
}

// Config configures the scalping strategy. Expected parameters:
// horizon (int), optionally bandWidth (float64).
func (s *Scalping) Config(params ...any) error {
	if len(params) < 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects at least 1 parameter: horizon (int)")
	}

	horizon, ok := params[0].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for horizon parameter, expected int")
	}

	if horizon < 2 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "horizon must be at least 2, got %d", horizon)
	}

	s.horizon = horizon

	if len(params) >= 2 {
		band, ok := params[1].(float64)
		if !ok {
			return errors.New(errors.ErrCodeInvalidType, "invalid type for bandWidth parameter, expected float64")
		}

		if band <= 0 {
			return errors.Newf(errors.ErrCodeInvalidParameter, "bandWidth must be positive, got %f", band)
		}

		s.bandWidth = band
	}

	return nil
}

// MinBars implements Strategy.
func (s *Scalping) MinBars() int {
	return s.horizon + 1
}

// SignalValue scores the horizon return against its volatility band. The
// band is per-bar return stdev scaled by sqrt(horizon); returns inside the
// band read as noise and map to 0.
func (s *Scalping) SignalValue(window []types.Bar) (float64, error) {
	if len(window) < s.MinBars() {
		return 0, errors.NewInsufficientDataErrorf(s.MinBars(), len(window), "",
			"scalping needs %d bars, got %d", s.MinBars(), len(window))
	}

	prices := closes(window)
	tail := prices[len(prices)-s.horizon-1:]

	rets := returns(tail)

	vol := stdev(rets)
	if vol == 0 {
		return 0, nil
	}

	if tail[0] == 0 {
		return 0, nil
	}

	horizonReturn := tail[len(tail)-1]/tail[0] - 1
	z := horizonReturn / (vol * math.Sqrt(float64(s.horizon)))

	switch {
	case z > s.bandWidth:
		return types.ClampSignal((z - s.bandWidth) / s.bandWidth), nil
	case z < -s.bandWidth:
		return types.ClampSignal((z + s.bandWidth) / s.bandWidth), nil
	default:
		return 0, nil
	}
}
