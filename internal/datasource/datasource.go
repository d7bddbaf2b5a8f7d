package datasource

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// Interval is the bar interval of a historical series.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

// Duration returns the bar interval as a time.Duration.
func (i Interval) Duration() (time.Duration, error) {
	switch i {
	case Interval1m:
		return time.Minute, nil
	case Interval5m:
		return 5 * time.Minute, nil
	case Interval15m:
		return 15 * time.Minute, nil
	case Interval30m:
		return 30 * time.Minute, nil
	case Interval1h:
		return time.Hour, nil
	case Interval4h:
		return 4 * time.Hour, nil
	case Interval1d:
		return 24 * time.Hour, nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidTimespan, "unknown interval %q", string(i))
	}
}

// Gap is a hole in a historical series: the expected bar between Before and
// After is missing for the declared interval.
type Gap struct {
	Before time.Time
	After  time.Time
	// MissingBars is how many bars are absent between Before and After.
	MissingBars int
}

// DataSource supplies an ordered, gap-checked sequence of bars for one
// symbol/interval. Implementations load the full series into memory before
// the replay loop; the hot loop never touches the source.
type DataSource interface {
	// Initialize prepares the data source with the given data path
	// (CSV or Parquet for file-backed sources).
	Initialize(path string) error
	// GetBars returns the bars in the requested window in strict time order.
	GetBars(start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error)
	// Count returns the number of bars in the requested window.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close releases any resources held by the data source.
	Close() error
}

// CheckOrdering verifies the series is strictly increasing in time.
func CheckOrdering(bars []types.Bar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return errors.Newf(errors.ErrCodeSeriesUnordered,
				"bars out of order at index %d: %s is not after %s",
				i, bars[i].Time, bars[i-1].Time)
		}
	}

	return nil
}

// DetectGaps reports the holes in a series for the declared interval.
// The series must already be strictly ordered.
func DetectGaps(bars []types.Bar, interval Interval) ([]Gap, error) {
	d, err := interval.Duration()
	if err != nil {
		return nil, err
	}

	var gaps []Gap

	for i := 1; i < len(bars); i++ {
		delta := bars[i].Time.Sub(bars[i-1].Time)
		if delta > d {
			gaps = append(gaps, Gap{
				Before:      bars[i-1].Time,
				After:       bars[i].Time,
				MissingBars: int(delta/d) - 1,
			})
		}
	}

	return gaps, nil
}

// filterWindow keeps bars within [start, end] when the bounds are present.
func filterWindow(bars []types.Bar, start optional.Option[time.Time], end optional.Option[time.Time]) []types.Bar {
	out := make([]types.Bar, 0, len(bars))

	for _, b := range bars {
		if start.IsSome() && b.Time.Before(start.Unwrap()) {
			continue
		}

		if end.IsSome() && b.Time.After(end.Unwrap()) {
			continue
		}

		out = append(out, b)
	}

	return out
}
