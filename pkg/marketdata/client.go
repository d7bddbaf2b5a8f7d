// Package marketdata downloads historical bars from exchange and vendor
// APIs and stores them in the file formats the backtest reads.
package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tidemark-lab/tidemark/pkg/errors"
	"github.com/tidemark-lab/tidemark/pkg/marketdata/provider"
	"github.com/tidemark-lab/tidemark/pkg/marketdata/writer"
)

// Format selects the output file format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// ClientConfig configures a download client.
type ClientConfig struct {
	ProviderType  provider.Type `validate:"required,oneof=polygon binance"`
	Format        Format        `validate:"required,oneof=csv parquet"`
	DataPath      string        `validate:"required"`
	PolygonAPIKey string        `validate:"required_if=ProviderType polygon"`
}

// DownloadParams describes one download request.
type DownloadParams struct {
	Symbol   string            `validate:"required"`
	Start    time.Time         `validate:"required"`
	End      time.Time         `validate:"required,gtfield=Start"`
	Timespan provider.Timespan `validate:"required"`
}

// Client ties a provider to a writer and runs downloads.
type Client struct {
	provider   provider.Provider
	config     ClientConfig
	validate   *validator.Validate
	onProgress provider.OnDownloadProgress
}

// NewClient creates a download client. onProgress may be nil.
func NewClient(config ClientConfig, onProgress provider.OnDownloadProgress) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	marketProvider, err := provider.New(config.ProviderType, config.PolygonAPIKey)
	if err != nil {
		return nil, err
	}

	return &Client{
		provider:   marketProvider,
		config:     config,
		validate:   validate,
		onProgress: onProgress,
	}, nil
}

// Download fetches bars for the request and writes them under DataPath.
// It returns the path of the written file.
func (c *Client) Download(ctx context.Context, params DownloadParams) (string, error) {
	if err := c.validate.Struct(params); err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	if err := params.Timespan.Validate(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(c.config.DataPath, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create data folder", err)
	}

	barWriter := writer.NewDuckDBWriter(c.outputPath(params))
	if err := barWriter.Initialize(); err != nil {
		return "", err
	}

	defer barWriter.Close()

	c.provider.ConfigWriter(barWriter)

	return c.provider.Download(ctx, params.Symbol, params.Start, params.End, params.Timespan, c.onProgress)
}

// outputPath builds SYMBOL_START_END_TIMESPAN.(csv|parquet) under DataPath.
func (c *Client) outputPath(params DownloadParams) string {
	name := fmt.Sprintf("%s_%s_%s_%s.%s",
		params.Symbol,
		params.Start.Format("2006-01-02"),
		params.End.Format("2006-01-02"),
		params.Timespan,
		c.config.Format)

	return filepath.Join(c.config.DataPath, name)
}
