package provider

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
	"github.com/tidemark-lab/tidemark/pkg/marketdata/writer"
)

// polygonPageLimit is the aggregate page size requested from Polygon.
const polygonPageLimit = 50000

// PolygonClient downloads aggregate bars from Polygon.io.
type PolygonClient struct {
	client *polygon.Client
	writer writer.BarWriter
}

// NewPolygonClient creates a Polygon provider. An API key is required.
func NewPolygonClient(apiKey string) (*PolygonClient, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidProvider, "polygon API key is required")
	}

	return &PolygonClient{
		client: polygon.New(apiKey),
	}, nil
}

// Name implements Provider.
func (c *PolygonClient) Name() Type {
	return TypePolygon
}

// ConfigWriter implements Provider.
func (c *PolygonClient) ConfigWriter(w writer.BarWriter) {
	c.writer = w
}

// Download implements Provider.
func (c *PolygonClient) Download(ctx context.Context, symbol string, start, end time.Time, timespan Timespan, onProgress OnDownloadProgress) (string, error) {
	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataFetchFailed, "no writer configured")
	}

	multiplier, polygonSpan, err := timespan.polygon()
	if err != nil {
		return "", err
	}

	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: multiplier,
		Timespan:   polygonSpan,
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.WithLimit(polygonPageLimit)

	iter := c.client.ListAggs(ctx, params)
	span := end.Sub(start)
	processed := 0

	for iter.Next() {
		agg := iter.Item()
		barTime := time.Time(agg.Timestamp).UTC()

		bar := types.Bar{
			Symbol: symbol,
			Time:   barTime,
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		}

		if err := c.writer.Write(bar); err != nil {
			return "", err
		}

		processed++
		if onProgress != nil && processed%1000 == 0 && span > 0 {
			onProgress(float64(barTime.Sub(start)), float64(span), "downloading "+symbol)
		}
	}

	if iter.Err() != nil {
		return "", errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, iter.Err(), "failed to list %s aggregates", symbol)
	}

	path, err := c.writer.Finalize()
	if err != nil {
		return "", err
	}

	if onProgress != nil && span > 0 {
		onProgress(float64(span), float64(span), "finished "+symbol)
	}

	return path, nil
}

// polygon maps the timespan onto Polygon's multiplier and unit pair.
func (t Timespan) polygon() (int, models.Timespan, error) {
	switch t {
	case TimespanOneMinute:
		return 1, models.Minute, nil
	case TimespanFiveMinutes:
		return 5, models.Minute, nil
	case TimespanFifteenMinutes:
		return 15, models.Minute, nil
	case TimespanThirtyMinutes:
		return 30, models.Minute, nil
	case TimespanOneHour:
		return 1, models.Hour, nil
	case TimespanFourHours:
		return 4, models.Hour, nil
	case TimespanOneDay:
		return 1, models.Day, nil
	default:
		return 0, "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported timespan %q", string(t))
	}
}
