package indicator

import (
	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// RSI represents the Relative Strength Index indicator.
type RSI struct {
	period         int
	lowerThreshold float64
	upperThreshold float64
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() Indicator {
	return &RSI{
		period:         14,
		lowerThreshold: 30,
		upperThreshold: 70,
	}
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Config configures the RSI indicator. Expected parameters: period (int),
// optionally lower threshold (float64) and upper threshold (float64).
func (r *RSI) Config(params ...any) error {
	if len(params) < 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects at least 1 parameter: period (int)")
	}

	period, ok := params[0].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for period parameter, expected int")
	}

	if period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	r.period = period

	if len(params) >= 2 {
		threshold, ok := params[1].(float64)
		if !ok {
			return errors.New(errors.ErrCodeInvalidType, "invalid type for lower threshold parameter, expected float64")
		}

		r.lowerThreshold = threshold
	}

	if len(params) >= 3 {
		threshold, ok := params[2].(float64)
		if !ok {
			return errors.New(errors.ErrCodeInvalidType, "invalid type for upper threshold parameter, expected float64")
		}

		r.upperThreshold = threshold
	}

	if r.lowerThreshold >= r.upperThreshold {
		return errors.Newf(errors.ErrCodeInvalidThreshold,
			"lower threshold %.2f must be below upper threshold %.2f", r.lowerThreshold, r.upperThreshold)
	}

	return nil
}

// MinBars implements Indicator.
func (r *RSI) MinBars() int {
	return r.period + 1
}

// RawValue computes RSI over the window using Wilder's smoothing.
func (r *RSI) RawValue(window []types.Bar) (float64, error) {
	if len(window) < r.MinBars() {
		return 0, errors.NewInsufficientDataErrorf(r.MinBars(), len(window), "",
			"rsi needs %d bars, got %d", r.MinBars(), len(window))
	}

	gains := make([]float64, 0, len(window)-1)
	losses := make([]float64, 0, len(window)-1)

	for i := 1; i < len(window); i++ {
		change := window[i].Close - window[i-1].Close
		if change > 0 {
			gains = append(gains, change)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -change)
		}
	}

	avgGain := 0.0
	avgLoss := 0.0

	for i := 0; i < r.period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}

	avgGain /= float64(r.period)
	avgLoss /= float64(r.period)

	// Wilder's smoothing for the remainder of the window.
	for i := r.period; i < len(gains); i++ {
		avgGain = (avgGain*float64(r.period-1) + gains[i]) / float64(r.period)
		avgLoss = (avgLoss*float64(r.period-1) + losses[i]) / float64(r.period)
	}

	if avgLoss == 0 {
		// Perfect uptrend. Defined as 100, not an error.
		return 100, nil
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs)), nil
}

// SignalValue maps RSI into [-1, 1]: overbought readings slope linearly to -1
// at RSI=100, oversold readings slope to +1 at RSI=0, the middle band is 0.
func (r *RSI) SignalValue(window []types.Bar) (float64, error) {
	rsi, err := r.RawValue(window)
	if err != nil {
		return 0, err
	}

	switch {
	case rsi > r.upperThreshold:
		return types.ClampSignal(-(rsi - r.upperThreshold) / (100 - r.upperThreshold)), nil
	case rsi < r.lowerThreshold:
		return types.ClampSignal((r.lowerThreshold - rsi) / r.lowerThreshold), nil
	default:
		return 0, nil
	}
}
