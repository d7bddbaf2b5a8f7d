package strategy

import (
	"math"

	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// defaultMomentumScale is the absolute short-term return that saturates the
// swing signal magnitude.
const defaultMomentumScale = 0.01

// Swing combines a medium-horizon moving-average crossover with short-term
// momentum: the crossover sets the direction, momentum the conviction.
type Swing struct {
	shortPeriod      int
	longPeriod       int
	momentumLookback int
	momentumScale    float64
}

// NewSwing creates a new swing strategy with default configuration.
func NewSwing() Strategy {
	return &Swing{
		shortPeriod:      10,
		longPeriod:       30,
		momentumLookback: 5,
		momentumScale:    defaultMomentumScale,
	}
}

// Name returns the name of the strategy.
func (s *Swing) Name() types.StrategyType {
	return types.StrategyTypeSwing
}

// Config configures the swing strategy. Expected parameters:
// shortPeriod (int), longPeriod (int), momentumLookback (int),
// optionally momentumScale (float64).
func (s *Swing) Config(params ...any) error {
	if len(params) < 3 {
		return errors.New(errors.ErrCodeMissingParameter,
			"Config expects 3 parameters: shortPeriod (int), longPeriod (int), momentumLookback (int)")
	}

	short, ok := params[0].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for shortPeriod parameter, expected int")
	}

	long, ok := params[1].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for longPeriod parameter, expected int")
	}

	lookback, ok := params[2].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for momentumLookback parameter, expected int")
	}

	if short <= 0 || long <= 0 || lookback <= 0 {
		return errors.New(errors.ErrCodeInvalidPeriod, "all swing periods must be positive")
	}

	if short >= long {
		return errors.Newf(errors.ErrCodeInvalidPeriod,
			"shortPeriod %d must be below longPeriod %d", short, long)
	}

	s.shortPeriod = short
	s.longPeriod = long
	s.momentumLookback = lookback

	if len(params) >= 4 {
		scale, ok := params[3].(float64)
		if !ok {
			return errors.New(errors.ErrCodeInvalidType, "invalid type for momentumScale parameter, expected float64")
		}

		if scale <= 0 {
			return errors.Newf(errors.ErrCodeInvalidParameter, "momentumScale must be positive, got %f", scale)
		}

		s.momentumScale = scale
	}

	return nil
}

// MinBars implements Strategy.
func (s *Swing) MinBars() int {
	if s.momentumLookback+1 > s.longPeriod {
		return s.momentumLookback + 1
	}

	return s.longPeriod
}

// SignalValue takes direction from the MA crossover and magnitude from the
// short-term momentum strength. A flat crossover yields 0 regardless of
// momentum.
func (s *Swing) SignalValue(window []types.Bar) (float64, error) {
	if len(window) < s.MinBars() {
		return 0, errors.NewInsufficientDataErrorf(s.MinBars(), len(window), "",
			"swing needs %d bars, got %d", s.MinBars(), len(window))
	}

	prices := closes(window)

	shortMA := mean(prices[len(prices)-s.shortPeriod:])
	longMA := mean(prices[len(prices)-s.longPeriod:])

	direction := 0.0

	switch {
	case shortMA > longMA:
		direction = 1
	case shortMA < longMA:
		direction = -1
	default:
		return 0, nil
	}

	anchor := prices[len(prices)-1-s.momentumLookback]
	if anchor == 0 {
		return 0, nil
	}

	momentum := prices[len(prices)-1]/anchor - 1
	magnitude := math.Min(math.Abs(momentum)/s.momentumScale, 1)

	return types.ClampSignal(direction * magnitude), nil
}
