package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/tidemark-lab/tidemark/internal/backtest/engine"
	enginev1 "github.com/tidemark-lab/tidemark/internal/backtest/engine/engine_v1"
	"github.com/tidemark-lab/tidemark/internal/datasource"
	"github.com/tidemark-lab/tidemark/internal/logger"
	"github.com/tidemark-lab/tidemark/internal/report"
	"github.com/tidemark-lab/tidemark/internal/types"
)

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	resultsPath := cmd.String("output")
	mode := cmd.String("mode")

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	defer appLogger.Sync()

	backtester := enginev1.NewBacktestEngineV1(appLogger)

	if configPath != "" {
		config, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		if err := backtester.Initialize(string(config)); err != nil {
			return err
		}
	}

	if mode != "ensemble" {
		if err := backtester.SetSoloCategory(types.SignalCategory(mode)); err != nil {
			return err
		}
	}

	source, err := datasource.NewDuckDBDataSource(appLogger)
	if err != nil {
		return err
	}

	defer source.Close()

	if err := source.Initialize(dataPath); err != nil {
		return err
	}

	if err := backtester.SetDataSource(source); err != nil {
		return err
	}

	if resultsPath != "" {
		if err := backtester.SetResultsFolder(resultsPath); err != nil {
			return err
		}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(fmt.Sprintf("Replaying %s", filepath.Base(dataPath))),
		progressbar.OptionShowCount())

	callback := engine.OnProcessBarCallback(func(current, total int) error {
		bar.ChangeMax(total)

		return bar.Set(current)
	})

	result, err := backtester.Run(ctx, optional.Some(callback))
	if err != nil {
		return err
	}

	bar.Finish()
	fmt.Println()
	fmt.Println(report.RenderSummary(result.Report))

	if result.ResultsFolder != "" {
		fmt.Printf("results written to %s\n", result.ResultsFolder)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Replay a historical bar series through the signal engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML run configuration (defaults apply when omitted)",
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the bar series (.csv or .parquet)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Results folder; report, trades, equity, and chart are written per run",
				Value:   "results",
			},
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "Signal mode: ensemble, technical, strategy, sentiment, or ml",
				Value:   "ensemble",
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
