package indicator

import (
	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// MACD represents the Moving Average Convergence/Divergence indicator.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a new MACD indicator with default configuration.
func NewMACD() Indicator {
	return &MACD{
		fastPeriod:   12,
		slowPeriod:   26,
		signalPeriod: 9,
	}
}

// Name returns the name of the indicator.
func (m *MACD) Name() types.IndicatorType {
	return types.IndicatorTypeMACD
}

// Config configures the MACD indicator. Expected parameters:
// fastPeriod (int), slowPeriod (int), signalPeriod (int).
func (m *MACD) Config(params ...any) error {
	if len(params) < 3 {
		return errors.New(errors.ErrCodeMissingParameter,
			"Config expects 3 parameters: fastPeriod (int), slowPeriod (int), signalPeriod (int)")
	}

	fast, ok := params[0].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for fastPeriod parameter, expected int")
	}

	slow, ok := params[1].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for slowPeriod parameter, expected int")
	}

	signal, ok := params[2].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for signalPeriod parameter, expected int")
	}

	if fast <= 0 || slow <= 0 || signal <= 0 {
		return errors.New(errors.ErrCodeInvalidPeriod, "all MACD periods must be positive")
	}

	if fast >= slow {
		return errors.Newf(errors.ErrCodeInvalidPeriod,
			"fastPeriod %d must be below slowPeriod %d", fast, slow)
	}

	m.fastPeriod = fast
	m.slowPeriod = slow
	m.signalPeriod = signal

	return nil
}

// MinBars implements Indicator.
func (m *MACD) MinBars() int {
	return m.slowPeriod + m.signalPeriod
}

// RawValue returns the MACD histogram: the MACD line minus its signal line.
func (m *MACD) RawValue(window []types.Bar) (float64, error) {
	macdLine, signalLine, err := m.lines(window)
	if err != nil {
		return 0, err
	}

	return macdLine - signalLine, nil
}

// SignalValue normalizes the histogram by a rolling volatility estimate
// (sample stdev of close-to-close changes over the slow period) so the
// signal stays comparable across price scales, then clips to [-1, 1].
func (m *MACD) SignalValue(window []types.Bar) (float64, error) {
	hist, err := m.RawValue(window)
	if err != nil {
		return 0, err
	}

	prices := closes(window)
	tail := prices[len(prices)-m.slowPeriod:]

	changes := make([]float64, 0, len(tail)-1)
	for i := 1; i < len(tail); i++ {
		changes = append(changes, tail[i]-tail[i-1])
	}

	vol := stdev(changes)
	if vol == 0 {
		// Flat prices carry no divergence information.
		return 0, nil
	}

	return types.ClampSignal(hist / vol), nil
}

func (m *MACD) lines(window []types.Bar) (float64, float64, error) {
	if len(window) < m.MinBars() {
		return 0, 0, errors.NewInsufficientDataErrorf(m.MinBars(), len(window), "",
			"macd needs %d bars, got %d", m.MinBars(), len(window))
	}

	prices := closes(window)

	fastEMA := ema(prices, m.fastPeriod)
	slowEMA := ema(prices, m.slowPeriod)

	// MACD line is only meaningful once the slow EMA is seeded.
	macdSeries := make([]float64, 0, len(prices)-m.slowPeriod+1)
	for i := m.slowPeriod - 1; i < len(prices); i++ {
		macdSeries = append(macdSeries, fastEMA[i]-slowEMA[i])
	}

	signalEMA := ema(macdSeries, m.signalPeriod)

	return macdSeries[len(macdSeries)-1], signalEMA[len(signalEMA)-1], nil
}
