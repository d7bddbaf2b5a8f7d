package indicator

import (
	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// defaultMADivergenceScale is the relative short/long divergence that
// saturates the signal. A short MA 2% above the long MA reads as fully
// bullish at intraday bar resolution.
const defaultMADivergenceScale = 0.02

// MAPair compares a short and a long simple moving average.
type MAPair struct {
	shortPeriod     int
	longPeriod      int
	divergenceScale float64
}

// NewMAPair creates a new moving-average pair indicator with default configuration.
func NewMAPair() Indicator {
	return &MAPair{
		shortPeriod:     20,
		longPeriod:      50,
		divergenceScale: defaultMADivergenceScale,
	}
}

// Name returns the name of the indicator.
func (m *MAPair) Name() types.IndicatorType {
	return types.IndicatorTypeMAPair
}

// Config configures the MA pair indicator. Expected parameters:
// shortPeriod (int), longPeriod (int), optionally divergenceScale (float64).
func (m *MAPair) Config(params ...any) error {
	if len(params) < 2 {
		return errors.New(errors.ErrCodeMissingParameter,
			"Config expects 2 parameters: shortPeriod (int), longPeriod (int)")
	}

	short, ok := params[0].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for shortPeriod parameter, expected int")
	}

	long, ok := params[1].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for longPeriod parameter, expected int")
	}

	if short <= 0 || long <= 0 {
		return errors.New(errors.ErrCodeInvalidPeriod, "both MA periods must be positive")
	}

	if short >= long {
		return errors.Newf(errors.ErrCodeInvalidPeriod,
			"shortPeriod %d must be below longPeriod %d", short, long)
	}

	m.shortPeriod = short
	m.longPeriod = long

	if len(params) >= 3 {
		scale, ok := params[2].(float64)
		if !ok {
			return errors.New(errors.ErrCodeInvalidType, "invalid type for divergenceScale parameter, expected float64")
		}

		if scale <= 0 {
			return errors.Newf(errors.ErrCodeInvalidParameter, "divergenceScale must be positive, got %f", scale)
		}

		m.divergenceScale = scale
	}

	return nil
}

// MinBars implements Indicator.
func (m *MAPair) MinBars() int {
	return m.longPeriod
}

// RawValue returns the relative divergence (short MA - long MA) / long MA.
func (m *MAPair) RawValue(window []types.Bar) (float64, error) {
	if len(window) < m.MinBars() {
		return 0, errors.NewInsufficientDataErrorf(m.MinBars(), len(window), "",
			"ma pair needs %d bars, got %d", m.MinBars(), len(window))
	}

	prices := closes(window)

	shortMA := mean(prices[len(prices)-m.shortPeriod:])
	longMA := mean(prices[len(prices)-m.longPeriod:])

	if longMA == 0 {
		return 0, nil
	}

	return (shortMA - longMA) / longMA, nil
}

// SignalValue scales the relative divergence so divergenceScale saturates
// the signal, keeping the sign of the crossover.
func (m *MAPair) SignalValue(window []types.Bar) (float64, error) {
	div, err := m.RawValue(window)
	if err != nil {
		return 0, err
	}

	return types.ClampSignal(div / m.divergenceScale), nil
}
