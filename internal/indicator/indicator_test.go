package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

type IndicatorTestSuite struct {
	suite.Suite
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

// barsFromCloses builds a minute-bar window where volume defaults to 100.
func barsFromCloses(closes ...float64) []types.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))

	for i, c := range closes {
		bars[i] = types.Bar{
			Symbol: "BTCUSDT",
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 100,
		}
	}

	return bars
}

func risingCloses(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}

	return out
}

func (s *IndicatorTestSuite) TestRSIMonotonicUptrendIsMaximallyOverbought() {
	rsi := NewRSI()
	s.Require().NoError(rsi.Config(14))

	window := barsFromCloses(risingCloses(20, 100, 1)...)

	raw, err := rsi.RawValue(window)
	s.Require().NoError(err)
	s.Equal(100.0, raw)

	signal, err := rsi.SignalValue(window)
	s.Require().NoError(err)
	s.Equal(-1.0, signal)
}

func (s *IndicatorTestSuite) TestRSIMonotonicDowntrend() {
	rsi := NewRSI()
	s.Require().NoError(rsi.Config(14))

	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}

	raw, err := rsi.RawValue(barsFromCloses(closes...))
	s.Require().NoError(err)
	s.Equal(0.0, raw)

	signal, err := rsi.SignalValue(barsFromCloses(closes...))
	s.Require().NoError(err)
	s.Equal(1.0, signal)
}

func (s *IndicatorTestSuite) TestRSINeutralBandMapsToZero() {
	rsi := NewRSI()
	s.Require().NoError(rsi.Config(14))

	// Alternating up/down closes hold RSI near 50.
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i%2)
	}

	signal, err := rsi.SignalValue(barsFromCloses(closes...))
	s.Require().NoError(err)
	s.Equal(0.0, signal)
}

func (s *IndicatorTestSuite) TestRSIInsufficientData() {
	rsi := NewRSI()
	s.Require().NoError(rsi.Config(14))

	_, err := rsi.RawValue(barsFromCloses(risingCloses(10, 100, 1)...))
	s.Require().Error(err)
	s.True(errors.IsInsufficientDataError(err))
}

func (s *IndicatorTestSuite) TestRSIConfigRejectsBadThresholds() {
	rsi := NewRSI()
	err := rsi.Config(14, 70.0, 30.0)
	s.Require().Error(err)
	s.Equal(errors.ErrCodeInvalidThreshold, errors.GetCode(err))
}

func (s *IndicatorTestSuite) TestMACDFlatSeriesIsZero() {
	macd := NewMACD()
	s.Require().NoError(macd.Config(12, 26, 9))

	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}

	signal, err := macd.SignalValue(barsFromCloses(closes...))
	s.Require().NoError(err)
	s.Equal(0.0, signal)
}

func (s *IndicatorTestSuite) TestMACDUptrendIsBullish() {
	macd := NewMACD()
	s.Require().NoError(macd.Config(12, 26, 9))

	// Accelerating uptrend keeps the fast EMA above the slow EMA and the
	// histogram positive.
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)*float64(i)*0.05
	}

	signal, err := macd.SignalValue(barsFromCloses(closes...))
	s.Require().NoError(err)
	s.Greater(signal, 0.0)
	s.LessOrEqual(signal, 1.0)
}

func (s *IndicatorTestSuite) TestMACDConfigRejectsInvertedPeriods() {
	macd := NewMACD()
	err := macd.Config(26, 12, 9)
	s.Require().Error(err)
	s.Equal(errors.ErrCodeInvalidPeriod, errors.GetCode(err))
}

func (s *IndicatorTestSuite) TestBollingerLowerBandIsBullish() {
	bb := NewBollingerBands()
	s.Require().NoError(bb.Config(20, 2.0))

	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	// Last close drops hard below the band.
	closes[19] = 80

	signal, err := bb.SignalValue(barsFromCloses(closes...))
	s.Require().NoError(err)
	s.Equal(1.0, signal)
}

func (s *IndicatorTestSuite) TestBollingerUpperBandIsBearish() {
	bb := NewBollingerBands()
	s.Require().NoError(bb.Config(20, 2.0))

	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	closes[19] = 120

	signal, err := bb.SignalValue(barsFromCloses(closes...))
	s.Require().NoError(err)
	s.Equal(-1.0, signal)
}

func (s *IndicatorTestSuite) TestBollingerFlatSeriesIsZero() {
	bb := NewBollingerBands()
	s.Require().NoError(bb.Config(20, 2.0))

	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}

	signal, err := bb.SignalValue(barsFromCloses(closes...))
	s.Require().NoError(err)
	s.Equal(0.0, signal)
}

func (s *IndicatorTestSuite) TestMAPairGoldenCross() {
	ma := NewMAPair()
	s.Require().NoError(ma.Config(5, 10))

	// Strong recent rally lifts the short MA well above the long MA.
	closes := append(risingCloses(5, 100, 0), risingCloses(5, 100, 20)...)

	signal, err := ma.SignalValue(barsFromCloses(closes...))
	s.Require().NoError(err)
	s.Equal(1.0, signal)
}

func (s *IndicatorTestSuite) TestMAPairDeathCross() {
	ma := NewMAPair()
	s.Require().NoError(ma.Config(5, 10))

	closes := make([]float64, 10)
	for i := range closes {
		closes[i] = 200 - float64(i)*15
	}

	signal, err := ma.SignalValue(barsFromCloses(closes...))
	s.Require().NoError(err)
	s.Equal(-1.0, signal)
}

func (s *IndicatorTestSuite) TestVolumeSurgeOnUpBar() {
	vol := NewVolume()
	s.Require().NoError(vol.Config(5))

	bars := barsFromCloses(100, 100, 100, 100, 100, 101)
	bars[5].Volume = 500

	signal, err := vol.SignalValue(bars)
	s.Require().NoError(err)
	s.Equal(1.0, signal)
}

func (s *IndicatorTestSuite) TestVolumeSurgeOnDownBar() {
	vol := NewVolume()
	s.Require().NoError(vol.Config(5))

	bars := barsFromCloses(100, 100, 100, 100, 100, 99)
	bars[5].Volume = 500

	signal, err := vol.SignalValue(bars)
	s.Require().NoError(err)
	s.Equal(-1.0, signal)
}

func (s *IndicatorTestSuite) TestVolumeUnchangedCloseIsZero() {
	vol := NewVolume()
	s.Require().NoError(vol.Config(5))

	bars := barsFromCloses(100, 100, 100, 100, 100, 100)
	bars[5].Volume = 500

	signal, err := vol.SignalValue(bars)
	s.Require().NoError(err)
	s.Equal(0.0, signal)
}

func (s *IndicatorTestSuite) TestVolumeZeroMeanIsZero() {
	vol := NewVolume()
	s.Require().NoError(vol.Config(5))

	bars := barsFromCloses(100, 100, 100, 100, 100, 101)
	for i := range bars {
		bars[i].Volume = 0
	}

	signal, err := vol.SignalValue(bars)
	s.Require().NoError(err)
	s.Equal(0.0, signal)
}

func (s *IndicatorTestSuite) TestEngineCategorySignalBounded() {
	engine, err := NewEngine(DefaultParams())
	s.Require().NoError(err)

	window := barsFromCloses(risingCloses(engine.MinBars()+10, 100, 2)...)

	signal, err := engine.CategorySignal(window)
	s.Require().NoError(err)
	s.Equal(types.CategoryTechnical, signal.Category)
	s.GreaterOrEqual(signal.Value, -1.0)
	s.LessOrEqual(signal.Value, 1.0)
	s.False(math.IsNaN(signal.Value))
}

func (s *IndicatorTestSuite) TestEngineNotReady() {
	engine, err := NewEngine(DefaultParams())
	s.Require().NoError(err)

	_, err = engine.CategorySignal(barsFromCloses(risingCloses(10, 100, 1)...))
	s.Require().Error(err)
	s.True(errors.IsInsufficientDataError(err))
}

func (s *IndicatorTestSuite) TestEngineSignalValuesKeyedByName() {
	engine, err := NewEngine(DefaultParams())
	s.Require().NoError(err)

	window := barsFromCloses(risingCloses(engine.MinBars(), 100, 1)...)

	values, err := engine.SignalValues(window)
	s.Require().NoError(err)
	s.Len(values, 5)
	s.Contains(values, types.IndicatorTypeRSI)
	s.Contains(values, types.IndicatorTypeVolume)
}

func (s *IndicatorTestSuite) TestRegistryDuplicateRejected() {
	registry := NewRegistry()
	s.Require().NoError(registry.RegisterIndicator(NewRSI()))

	err := registry.RegisterIndicator(NewRSI())
	s.Require().Error(err)
	s.Equal(errors.ErrCodeIndicatorAlreadyExists, errors.GetCode(err))
}

func (s *IndicatorTestSuite) TestRegistryRemove() {
	registry := NewRegistry()
	s.Require().NoError(registry.RegisterIndicator(NewRSI()))
	s.Require().NoError(registry.RemoveIndicator(types.IndicatorTypeRSI))

	_, err := registry.GetIndicator(types.IndicatorTypeRSI)
	s.Require().Error(err)
	s.Equal(errors.ErrCodeIndicatorNotFound, errors.GetCode(err))
}
