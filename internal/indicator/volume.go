package indicator

import (
	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// defaultVolumeDeviationScale saturates the volume signal at 1.5x the
// rolling mean volume (a +50% deviation).
const defaultVolumeDeviationScale = 0.5

// Volume measures deviation of current volume from its rolling mean,
// signed by the concurrent price change direction.
type Volume struct {
	period         int
	deviationScale float64
}

// NewVolume creates a new volume indicator with default configuration.
func NewVolume() Indicator {
	return &Volume{
		period:         20,
		deviationScale: defaultVolumeDeviationScale,
	}
}

// Name returns the name of the indicator.
func (v *Volume) Name() types.IndicatorType {
	return types.IndicatorTypeVolume
}

// Config configures the volume indicator. Expected parameters:
// period (int), optionally deviationScale (float64).
func (v *Volume) Config(params ...any) error {
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

	v.period = period

	if len(params) >= 2 {
		scale, ok := params[1].(float64)
		if !ok {
			return errors.New(errors.ErrCodeInvalidType, "invalid type for deviationScale parameter, expected float64")
		}

		if scale <= 0 {
			return errors.Newf(errors.ErrCodeInvalidParameter, "deviationScale must be positive, got %f", scale)
		}

		v.deviationScale = scale
	}

	return nil
}

// MinBars implements Indicator. One extra bar is needed for the price
// change direction.
func (v *Volume) MinBars() int {
	return v.period + 1
}

// RawValue returns the relative deviation of the current bar's volume from
// the rolling mean volume over the period.
func (v *Volume) RawValue(window []types.Bar) (float64, error) {
	if len(window) < v.MinBars() {
		return 0, errors.NewInsufficientDataErrorf(v.MinBars(), len(window), "",
			"volume needs %d bars, got %d", v.MinBars(), len(window))
	}

	tail := window[len(window)-v.period:]

	avg := 0.0
	for _, b := range tail {
		avg += b.Volume
	}

	avg /= float64(v.period)
	if avg == 0 {
		return 0, nil
	}

	return (window[len(window)-1].Volume - avg) / avg, nil
}

// SignalValue signs the volume deviation by the concurrent price change:
// heavy volume on an up bar is bullish, on a down bar bearish. An unchanged
// close yields 0 regardless of volume.
func (v *Volume) SignalValue(window []types.Bar) (float64, error) {
	dev, err := v.RawValue(window)
	if err != nil {
		return 0, err
	}

	last := window[len(window)-1].Close
	prev := window[len(window)-2].Close

	direction := 0.0

	switch {
	case last > prev:
		direction = 1
	case last < prev:
		direction = -1
	}

	return types.ClampSignal(dev / v.deviationScale * direction), nil
}
