package indicator

import (
	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// BollingerBands represents the Bollinger Bands indicator.
type BollingerBands struct {
	period int
	k      float64
}

// NewBollingerBands creates a new Bollinger Bands indicator with default configuration.
func NewBollingerBands() Indicator {
	return &BollingerBands{
		period: 20,
		k:      2,
	}
}

// Name returns the name of the indicator.
func (b *BollingerBands) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

// Config configures the Bollinger Bands indicator. Expected parameters:
// period (int), k (float64).
func (b *BollingerBands) Config(params ...any) error {
	if len(params) < 2 {
		return errors.New(errors.ErrCodeMissingParameter,
			"Config expects 2 parameters: period (int), k (float64)")
	}

	period, ok := params[0].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for period parameter, expected int")
	}

	k, ok := params[1].(float64)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for k parameter, expected float64")
	}

	if period <= 1 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "period must be greater than 1, got %d", period)
	}

	if k <= 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "k must be positive, got %f", k)
	}

	b.period = period
	b.k = k

	return nil
}

// MinBars implements Indicator.
func (b *BollingerBands) MinBars() int {
	return b.period
}

// RawValue returns the band z-score: (close - middle band) / (k * rolling stdev).
// +1 means the close sits exactly on the upper band, -1 on the lower band.
func (b *BollingerBands) RawValue(window []types.Bar) (float64, error) {
	if len(window) < b.MinBars() {
		return 0, errors.NewInsufficientDataErrorf(b.MinBars(), len(window), "",
			"bollinger bands need %d bars, got %d", b.MinBars(), len(window))
	}

	prices := closes(window)
	tail := prices[len(prices)-b.period:]

	middle := mean(tail)

	sd := stdev(tail)
	if sd == 0 {
		return 0, nil
	}

	return (tail[len(tail)-1] - middle) / (b.k * sd), nil
}

// SignalValue inverts the band position: a close pressing the upper band is
// overextended (negative), a close at the lower band is a buy (positive).
func (b *BollingerBands) SignalValue(window []types.Bar) (float64, error) {
	z, err := b.RawValue(window)
	if err != nil {
		return 0, err
	}

	return types.ClampSignal(-z), nil
}
