package provider

import (
	"context"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"

	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
	"github.com/tidemark-lab/tidemark/pkg/marketdata/writer"
)

// binancePageSize is the kline count Binance returns per request; a shorter
// page means the last one.
const binancePageSize = 500

// BinanceClient downloads public kline data from Binance.
type BinanceClient struct {
	client *binance.Client
	writer writer.BarWriter
}

// NewBinanceClient creates a Binance provider. Public kline endpoints need
// no credentials.
func NewBinanceClient() *BinanceClient {
	return &BinanceClient{
		client: binance.NewClient("", ""),
	}
}

// Name implements Provider.
func (c *BinanceClient) Name() Type {
	return TypeBinance
}

// ConfigWriter implements Provider.
func (c *BinanceClient) ConfigWriter(w writer.BarWriter) {
	c.writer = w
}

// Download implements Provider. Binance pages klines, so the fetch walks the
// range using the close time of the last kline as the next start.
func (c *BinanceClient) Download(ctx context.Context, symbol string, start, end time.Time, timespan Timespan, onProgress OnDownloadProgress) (string, error) {
	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataFetchFailed, "no writer configured")
	}

	if err := timespan.Validate(); err != nil {
		return "", err
	}

	startMillis := start.UnixMilli()
	endMillis := end.UnixMilli()
	currentStart := startMillis

	for {
		klines, err := c.client.NewKlinesService().
			Symbol(symbol).
			Interval(string(timespan)).
			StartTime(currentStart).
			EndTime(endMillis).
			Do(ctx)
		if err != nil {
			return "", errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s klines", symbol)
		}

		if err := c.writeKlines(symbol, klines); err != nil {
			return "", err
		}

		if onProgress != nil {
			onProgress(float64(currentStart-startMillis), float64(endMillis-startMillis), "downloading "+symbol)
		}

		if len(klines) < binancePageSize {
			break
		}

		currentStart = klines[len(klines)-1].CloseTime + 1
		if currentStart >= endMillis {
			break
		}
	}

	path, err := c.writer.Finalize()
	if err != nil {
		return "", err
	}

	if onProgress != nil {
		onProgress(float64(endMillis-startMillis), float64(endMillis-startMillis), "finished "+symbol)
	}

	return path, nil
}

func (c *BinanceClient) writeKlines(symbol string, klines []*binance.Kline) error {
	for _, k := range klines {
		open, _ := strconv.ParseFloat(k.Open, 64)
		high, _ := strconv.ParseFloat(k.High, 64)
		low, _ := strconv.ParseFloat(k.Low, 64)
		closePrice, _ := strconv.ParseFloat(k.Close, 64)
		volume, _ := strconv.ParseFloat(k.Volume, 64)

		bar := types.Bar{
			Symbol: symbol,
			// The open time stamps the bar, matching the replay convention.
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		}

		if err := c.writer.Write(bar); err != nil {
			return err
		}
	}

	return nil
}
