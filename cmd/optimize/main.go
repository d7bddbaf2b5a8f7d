package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/urfave/cli/v3"
	yaml "gopkg.in/yaml.v2"

	enginev1 "github.com/tidemark-lab/tidemark/internal/backtest/engine/engine_v1"
	"github.com/tidemark-lab/tidemark/internal/backtest/optimizer"
	"github.com/tidemark-lab/tidemark/internal/datasource"
	"github.com/tidemark-lab/tidemark/internal/logger"
	"github.com/tidemark-lab/tidemark/internal/report"
	"github.com/tidemark-lab/tidemark/internal/types"
)

func optionalNoTime() optional.Option[time.Time] {
	return optional.None[time.Time]()
}

func loadBaseConfig(path string) (enginev1.BacktestEngineV1Config, error) {
	config := enginev1.DefaultConfig()

	if path == "" {
		return config, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(raw, &config); err != nil {
		return config, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, config.Validate()
}

func loadGrid(path string) (optimizer.Grid, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read grid: %w", err)
	}

	var grid optimizer.Grid
	if err := yaml.Unmarshal(raw, &grid); err != nil {
		return nil, fmt.Errorf("failed to parse grid: %w", err)
	}

	return grid, nil
}

func loadBars(path string, appLogger *logger.Logger) ([]types.Bar, error) {
	source, err := datasource.NewDuckDBDataSource(appLogger)
	if err != nil {
		return nil, err
	}

	defer source.Close()

	if err := source.Initialize(path); err != nil {
		return nil, err
	}

	return source.GetBars(optionalNoTime(), optionalNoTime())
}

func optimizeAction(ctx context.Context, cmd *cli.Command) error {
	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	defer appLogger.Sync()

	baseConfig, err := loadBaseConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	grid, err := loadGrid(cmd.String("grid"))
	if err != nil {
		return err
	}

	bars, err := loadBars(cmd.String("data"), appLogger)
	if err != nil {
		return err
	}

	workers := int(cmd.Int("workers"))
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	opt := optimizer.NewOptimizer(baseConfig,
		optimizer.Metric(cmd.String("metric")), workers, appLogger)

	outcome, err := opt.Run(ctx, grid, bars)
	if err != nil {
		return err
	}

	metric := cmd.String("metric")

	fmt.Println(report.RenderSummary(outcome.Best.Report))
	fmt.Printf("top combinations by %s:\n", metric)

	for rank, result := range outcome.Top(5) {
		fmt.Printf("  %d. %s = %g  %s\n", rank+1, metric, result.MetricValue,
			formatCombination(result.Combination))
	}

	stats := outcome.Stats()
	fmt.Printf("%d succeeded, %d failed; %s mean %g, min %g, max %g\n",
		stats.Succeeded, stats.Failed, metric, stats.Mean, stats.Min, stats.Max)

	return nil
}

func formatCombination(combo optimizer.Combination) string {
	names := make([]string, 0, len(combo))
	for name := range combo {
		names = append(names, name)
	}

	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%g", name, combo[name])
	}

	return strings.Join(parts, " ")
}

func main() {
	cmd := &cli.Command{
		Name:  "optimize",
		Usage: "Grid-search run parameters against a historical bar series",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the base YAML run configuration",
			},
			&cli.StringFlag{
				Name:     "grid",
				Aliases:  []string{"g"},
				Usage:    "Path to a YAML map of parameter name to candidate values",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the bar series (.csv or .parquet)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "metric",
				Aliases: []string{"m"},
				Usage:   "Ranking metric: sharpe_ratio, total_return, calmar_ratio, profit_factor, win_rate",
				Value:   string(optimizer.MetricSharpe),
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Parallel evaluations (defaults to the CPU count)",
			},
		},
		Action: optimizeAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
