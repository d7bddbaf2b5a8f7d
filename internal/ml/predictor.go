// Package ml provides the machine-learned prediction signal. The replay
// engine treats predictors as opaque: anything that maps a bar window to a
// value in [-1, 1] qualifies.
package ml

import (
	"math"

	"github.com/markcheno/go-talib"

	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// Predictor maps a trailing bar window to a prediction signal.
type Predictor interface {
	// Name identifies the predictor in logs and reports.
	Name() string
	// MinBars returns the minimum window length the predictor needs.
	MinBars() int
	// Predict returns the prediction signal in [-1, 1] for the window.
	Predict(window []types.Bar) (float64, error)
}

// StaticPredictor always returns the same value. It backs runs without a
// trained model (value 0) and deterministic tests.
type StaticPredictor struct {
	value float64
}

// NewStaticPredictor creates a predictor pinned to value, clamped to [-1, 1].
func NewStaticPredictor(value float64) *StaticPredictor {
	return &StaticPredictor{value: types.ClampSignal(value)}
}

// Name implements Predictor.
func (s *StaticPredictor) Name() string {
	return "static"
}

// MinBars implements Predictor.
func (s *StaticPredictor) MinBars() int {
	return 1
}

// Predict implements Predictor.
func (s *StaticPredictor) Predict(_ []types.Bar) (float64, error) {
	return s.value, nil
}

// MomentumPredictor is the baseline model: a fixed linear blend of RSI, ROC
// and MACD-histogram features. It stands in for a trained model when none
// is supplied and exercises the same feature pipeline.
type MomentumPredictor struct {
	rsiPeriod  int
	rocPeriod  int
	macdFast   int
	macdSlow   int
	macdSignal int
}

// NewMomentumPredictor creates the baseline predictor with standard periods.
func NewMomentumPredictor() *MomentumPredictor {
	return &MomentumPredictor{
		rsiPeriod:  14,
		rocPeriod:  10,
		macdFast:   12,
		macdSlow:   26,
		macdSignal: 9,
	}
}

// Name implements Predictor.
func (m *MomentumPredictor) Name() string {
	return "momentum_baseline"
}

// MinBars implements Predictor.
func (m *MomentumPredictor) MinBars() int {
	return m.macdSlow + m.macdSignal
}

// Predict implements Predictor. Features are combined with fixed weights;
// each feature is individually normalized into [-1, 1] first.
func (m *MomentumPredictor) Predict(window []types.Bar) (float64, error) {
	if len(window) < m.MinBars() {
		return 0, errors.NewInsufficientDataErrorf(m.MinBars(), len(window), "",
			"momentum predictor needs %d bars, got %d", m.MinBars(), len(window))
	}

	closes := make([]float64, len(window))
	for i, b := range window {
		closes[i] = b.Close
	}

	rsiSeries := talib.Rsi(closes, m.rsiPeriod)
	rsiFeature := (rsiSeries[len(rsiSeries)-1] - 50) / 50

	rocSeries := talib.Roc(closes, m.rocPeriod)
	// ROC is in percent; 2% over the period saturates the feature.
	rocFeature := types.ClampSignal(rocSeries[len(rocSeries)-1] / 2)

	_, _, hist := talib.Macd(closes, m.macdFast, m.macdSlow, m.macdSignal)

	histFeature := 0.0

	if last := closes[len(closes)-1]; last != 0 {
		// Relative histogram; 0.5% of price saturates the feature.
		histFeature = types.ClampSignal(hist[len(hist)-1] / last / 0.005)
	}

	prediction := 0.4*rsiFeature + 0.3*rocFeature + 0.3*histFeature
	if math.IsNaN(prediction) {
		return 0, nil
	}

	return types.ClampSignal(prediction), nil
}
