package provider

import (
	"context"
	"time"

	"github.com/tidemark-lab/tidemark/pkg/errors"
	"github.com/tidemark-lab/tidemark/pkg/marketdata/writer"
)

// Type identifies a market data provider.
type Type string

const (
	TypePolygon Type = "polygon"
	TypeBinance Type = "binance"
)

// Timespan is the bar interval requested from a provider.
type Timespan string

const (
	TimespanOneMinute      Timespan = "1m"
	TimespanFiveMinutes    Timespan = "5m"
	TimespanFifteenMinutes Timespan = "15m"
	TimespanThirtyMinutes  Timespan = "30m"
	TimespanOneHour        Timespan = "1h"
	TimespanFourHours      Timespan = "4h"
	TimespanOneDay         Timespan = "1d"
)

// Validate checks that the timespan is one a provider can serve.
func (t Timespan) Validate() error {
	switch t {
	case TimespanOneMinute, TimespanFiveMinutes, TimespanFifteenMinutes,
		TimespanThirtyMinutes, TimespanOneHour, TimespanFourHours, TimespanOneDay:
		return nil
	default:
		return errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported timespan %q", string(t))
	}
}

// Duration returns the wall-clock length of one bar.
func (t Timespan) Duration() time.Duration {
	switch t {
	case TimespanOneMinute:
		return time.Minute
	case TimespanFiveMinutes:
		return 5 * time.Minute
	case TimespanFifteenMinutes:
		return 15 * time.Minute
	case TimespanThirtyMinutes:
		return 30 * time.Minute
	case TimespanOneHour:
		return time.Hour
	case TimespanFourHours:
		return 4 * time.Hour
	case TimespanOneDay:
		return 24 * time.Hour
	default:
		return time.Minute
	}
}

// OnDownloadProgress reports download progress to the caller.
type OnDownloadProgress = func(current float64, total float64, message string)

// Provider fetches historical bars from an exchange or data vendor and
// streams them into the configured writer.
type Provider interface {
	// Name returns the provider identifier.
	Name() Type
	// ConfigWriter sets the destination the downloaded bars are written to.
	ConfigWriter(w writer.BarWriter)
	// Download fetches bars for the symbol over [start, end] at the given
	// timespan and writes them out. It returns the finalized output path.
	Download(ctx context.Context, symbol string, start, end time.Time, timespan Timespan, onProgress OnDownloadProgress) (string, error)
}

// New creates a provider of the given type. Polygon needs an API key;
// Binance serves public kline data without one.
func New(providerType Type, polygonAPIKey string) (Provider, error) {
	switch providerType {
	case TypeBinance:
		return NewBinanceClient(), nil
	case TypePolygon:
		return NewPolygonClient(polygonAPIKey)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider %q", string(providerType))
	}
}
