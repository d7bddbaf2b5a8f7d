package strategy

import (
	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// MeanReversion bets against stretched prices: the signal is the negated,
// clipped z-score of the close relative to its rolling mean and stdev.
type MeanReversion struct {
	period     int
	zThreshold float64
}

// NewMeanReversion creates a new mean-reversion strategy with default configuration.
func NewMeanReversion() Strategy {
	return &MeanReversion{
		period:     20,
		zThreshold: 1.5,
	}
}

// Name returns the name of the strategy.
func (m *MeanReversion) Name() types.StrategyType {
	return types.StrategyTypeMeanReversion
}

// Config configures the mean-reversion strategy. Expected parameters:
// period (int), optionally zThreshold (float64).
func (m *MeanReversion) Config(params ...any) error {
	if len(params) < 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects at least 1 parameter: period (int)")
	}

	period, ok := params[0].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for period parameter, expected int")
	}

	if period <= 1 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "period must be greater than 1, got %d", period)
	}

	m.period = period

	if len(params) >= 2 {
		threshold, ok := params[1].(float64)
		if !ok {
			return errors.New(errors.ErrCodeInvalidType, "invalid type for zThreshold parameter, expected float64")
		}

		if threshold <= 0 {
			return errors.Newf(errors.ErrCodeInvalidThreshold, "zThreshold must be positive, got %f", threshold)
		}

		m.zThreshold = threshold
	}

	return nil
}

// MinBars implements Strategy.
func (m *MeanReversion) MinBars() int {
	return m.period
}

// SignalValue returns the negated z-score scaled so zThreshold saturates the
// signal. A price far above its rolling mean reads as sell pressure.
func (m *MeanReversion) SignalValue(window []types.Bar) (float64, error) {
	if len(window) < m.MinBars() {
		return 0, errors.NewInsufficientDataErrorf(m.MinBars(), len(window), "",
			"mean reversion needs %d bars, got %d", m.MinBars(), len(window))
	}

	prices := closes(window)
	tail := prices[len(prices)-m.period:]

	avg := mean(tail)

	sd := stdev(tail)
	if sd == 0 {
		return 0, nil
	}

	z := (tail[len(tail)-1] - avg) / sd

	return types.ClampSignal(-z / m.zThreshold), nil
}
