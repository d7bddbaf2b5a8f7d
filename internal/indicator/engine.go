package indicator

import (
	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// Params holds the tunable parameters for the five built-in indicators.
type Params struct {
	RSIPeriod        int     `yaml:"rsi_period" json:"rsi_period" validate:"gt=0"`
	RSILowerBound    float64 `yaml:"rsi_lower_bound" json:"rsi_lower_bound" validate:"gte=0,lte=100"`
	RSIUpperBound    float64 `yaml:"rsi_upper_bound" json:"rsi_upper_bound" validate:"gte=0,lte=100"`
	MACDFastPeriod   int     `yaml:"macd_fast_period" json:"macd_fast_period" validate:"gt=0"`
	MACDSlowPeriod   int     `yaml:"macd_slow_period" json:"macd_slow_period" validate:"gt=0"`
	MACDSignalPeriod int     `yaml:"macd_signal_period" json:"macd_signal_period" validate:"gt=0"`
	BBPeriod         int     `yaml:"bb_period" json:"bb_period" validate:"gt=1"`
	BBStdDev         float64 `yaml:"bb_std_dev" json:"bb_std_dev" validate:"gt=0"`
	MAShortPeriod    int     `yaml:"ma_short_period" json:"ma_short_period" validate:"gt=0"`
	MALongPeriod     int     `yaml:"ma_long_period" json:"ma_long_period" validate:"gt=0"`
	VolumePeriod     int     `yaml:"volume_period" json:"volume_period" validate:"gt=0"`
}

// DefaultParams returns the standard indicator parameters.
func DefaultParams() Params {
	return Params{
		RSIPeriod:        14,
		RSILowerBound:    30,
		RSIUpperBound:    70,
		MACDFastPeriod:   12,
		MACDSlowPeriod:   26,
		MACDSignalPeriod: 9,
		BBPeriod:         20,
		BBStdDev:         2,
		MAShortPeriod:    20,
		MALongPeriod:     50,
		VolumePeriod:     20,
	}
}

// Engine computes the technical category signal: the unweighted average of
// the five indicator signals over the current window.
type Engine struct {
	registry Registry
	order    []types.IndicatorType
	minBars  int
}

// NewEngine builds an engine with the five built-in indicators configured
// from params.
func NewEngine(params Params) (*Engine, error) {
	registry := NewRegistry()

	rsi := NewRSI()
	if err := rsi.Config(params.RSIPeriod, params.RSILowerBound, params.RSIUpperBound); err != nil {
		return nil, err
	}

	macd := NewMACD()
	if err := macd.Config(params.MACDFastPeriod, params.MACDSlowPeriod, params.MACDSignalPeriod); err != nil {
		return nil, err
	}

	bb := NewBollingerBands()
	if err := bb.Config(params.BBPeriod, params.BBStdDev); err != nil {
		return nil, err
	}

	maPair := NewMAPair()
	if err := maPair.Config(params.MAShortPeriod, params.MALongPeriod); err != nil {
		return nil, err
	}

	volume := NewVolume()
	if err := volume.Config(params.VolumePeriod); err != nil {
		return nil, err
	}

	minBars := 0

	for _, ind := range []Indicator{rsi, macd, bb, maPair, volume} {
		if err := registry.RegisterIndicator(ind); err != nil {
			return nil, err
		}

		if ind.MinBars() > minBars {
			minBars = ind.MinBars()
		}
	}

	return &Engine{
		registry: registry,
		order: []types.IndicatorType{
			types.IndicatorTypeRSI,
			types.IndicatorTypeMACD,
			types.IndicatorTypeBollingerBands,
			types.IndicatorTypeMAPair,
			types.IndicatorTypeVolume,
		},
		minBars: minBars,
	}, nil
}

// Registry exposes the underlying indicator registry.
func (e *Engine) Registry() Registry {
	return e.registry
}

// MinBars returns the longest warmup window across all indicators.
func (e *Engine) MinBars() int {
	return e.minBars
}

// SignalValues returns each indicator's signal for the window, keyed by name.
func (e *Engine) SignalValues(window []types.Bar) (map[types.IndicatorType]float64, error) {
	if len(window) < e.minBars {
		return nil, errors.NewInsufficientDataErrorf(e.minBars, len(window), "",
			"technical engine needs %d bars, got %d", e.minBars, len(window))
	}

	values := make(map[types.IndicatorType]float64, len(e.order))

	for _, name := range e.order {
		ind, err := e.registry.GetIndicator(name)
		if err != nil {
			return nil, err
		}

		v, err := ind.SignalValue(window)
		if err != nil {
			return nil, err
		}

		values[name] = v
	}

	return values, nil
}

// CategorySignal returns the unweighted average of the five indicator
// signals, always within [-1, 1].
func (e *Engine) CategorySignal(window []types.Bar) (types.CategorySignal, error) {
	values, err := e.SignalValues(window)
	if err != nil {
		return types.CategorySignal{}, err
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return types.CategorySignal{
		Category: types.CategoryTechnical,
		Value:    types.ClampSignal(sum / float64(len(values))),
		Time:     window[len(window)-1].Time,
	}, nil
}
