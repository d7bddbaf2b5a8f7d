package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/tidemark-lab/tidemark/pkg/marketdata"
	"github.com/tidemark-lab/tidemark/pkg/marketdata/provider"
)

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	symbol := cmd.String("symbol")
	start := cmd.Timestamp("start")
	end := cmd.Timestamp("end")

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", symbol)),
		progressbar.OptionShowCount())

	onProgress := provider.OnDownloadProgress(func(current, total float64, message string) {
		if total <= 0 {
			return
		}

		bar.Describe(message)
		bar.Set(int(current / total * 100))
	})

	client, err := marketdata.NewClient(marketdata.ClientConfig{
		ProviderType:  provider.Type(cmd.String("provider")),
		Format:        marketdata.Format(cmd.String("format")),
		DataPath:      cmd.String("data"),
		PolygonAPIKey: os.Getenv("POLYGON_API_KEY"),
	}, onProgress)
	if err != nil {
		return err
	}

	path, err := client.Download(ctx, marketdata.DownloadParams{
		Symbol:   symbol,
		Start:    start,
		End:      end,
		Timespan: provider.Timespan(cmd.String("timespan")),
	})
	if err != nil {
		return err
	}

	bar.Finish()
	fmt.Printf("\ndownloaded %s bars to %s\n", symbol, path)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "download",
		Usage: "Download historical bars for backtesting",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "symbol",
				Aliases:  []string{"t"},
				Usage:    "Symbol to download, e.g. BTCUSDT or AAPL",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:     "start",
				Aliases:  []string{"s"},
				Usage:    "Start date in `YYYY-MM-DD` format",
				Required: true,
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format, defaults to today",
				Value:   time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Data provider: %s or %s", provider.TypeBinance, provider.TypePolygon),
				Value:   string(provider.TypeBinance),
			},
			&cli.StringFlag{
				Name:    "timespan",
				Aliases: []string{"i"},
				Usage:   "Bar interval: 1m, 5m, 15m, 30m, 1h, 4h, 1d",
				Value:   string(provider.TimespanOneMinute),
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   fmt.Sprintf("Output format: %s or %s", marketdata.FormatCSV, marketdata.FormatParquet),
				Value:   string(marketdata.FormatCSV),
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Output directory",
				Value:   "data",
			},
		},
		Action: downloadAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
