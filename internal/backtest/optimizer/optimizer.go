package optimizer

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/tidemark-lab/tidemark/internal/backtest/engine"
	enginev1 "github.com/tidemark-lab/tidemark/internal/backtest/engine/engine_v1"
	"github.com/tidemark-lab/tidemark/internal/datasource"
	"github.com/tidemark-lab/tidemark/internal/logger"
	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// Metric selects which report field ranks the combinations.
type Metric string

const (
	MetricSharpe       Metric = "sharpe_ratio"
	MetricTotalReturn  Metric = "total_return"
	MetricCalmar       Metric = "calmar_ratio"
	MetricProfitFactor Metric = "profit_factor"
	MetricWinRate      Metric = "win_rate"
)

func (m Metric) extract(report types.PerformanceReport) float64 {
	switch m {
	case MetricTotalReturn:
		return report.TotalReturn
	case MetricCalmar:
		return report.CalmarRatio
	case MetricProfitFactor:
		return report.ProfitFactor
	case MetricWinRate:
		return report.WinRate
	default:
		return report.SharpeRatio
	}
}

// Result records one combination's outcome. Failed runs keep their error
// and are excluded from selection.
type Result struct {
	Combination Combination
	MetricValue float64
	Report      types.PerformanceReport
	Err         error
}

// Outcome is the full optimizer output: every combination's result plus the
// selected best.
type Outcome struct {
	Best    *Result
	Results []Result
}

// Top returns the k best successful results in rank order. Fewer than k are
// returned when not enough combinations succeeded.
func (o *Outcome) Top(k int) []Result {
	ranked := make([]Result, 0, len(o.Results))

	for _, r := range o.Results {
		if r.Err != nil || math.IsNaN(r.MetricValue) {
			continue
		}

		ranked = append(ranked, r)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return betterThan(&ranked[i], &ranked[j])
	})

	if k < len(ranked) {
		ranked = ranked[:k]
	}

	return ranked
}

// MetricStats summarizes the score distribution across successful runs.
type MetricStats struct {
	Succeeded int
	Failed    int
	Mean      float64
	Min       float64
	Max       float64
}

// Stats computes the metric distribution over the outcome's results.
func (o *Outcome) Stats() MetricStats {
	stats := MetricStats{
		Min: math.Inf(1),
		Max: math.Inf(-1),
	}

	sum := 0.0

	for _, r := range o.Results {
		if r.Err != nil || math.IsNaN(r.MetricValue) {
			stats.Failed++

			continue
		}

		stats.Succeeded++
		sum += r.MetricValue
		stats.Min = math.Min(stats.Min, r.MetricValue)
		stats.Max = math.Max(stats.Max, r.MetricValue)
	}

	if stats.Succeeded == 0 {
		return MetricStats{Failed: stats.Failed}
	}

	stats.Mean = sum / float64(stats.Succeeded)

	return stats
}

// Optimizer runs one independent backtest per grid combination across a
// worker pool and selects the best-scoring one.
type Optimizer struct {
	baseConfig enginev1.BacktestEngineV1Config
	metric     Metric
	workers    int
	logger     *logger.Logger
}

// NewOptimizer creates an optimizer. workers <= 0 falls back to 1; the
// metric defaults to Sharpe when empty.
func NewOptimizer(baseConfig enginev1.BacktestEngineV1Config, metric Metric, workers int, log *logger.Logger) *Optimizer {
	if workers <= 0 {
		workers = 1
	}

	if metric == "" {
		metric = MetricSharpe
	}

	return &Optimizer{
		baseConfig: baseConfig,
		metric:     metric,
		workers:    workers,
		logger:     log,
	}
}

// Run enumerates the grid and replays every combination over the shared,
// immutable bar series. Each combination gets a fresh engine and simulator;
// a failed combination is recorded and never aborts its siblings.
func (o *Optimizer) Run(ctx context.Context, grid Grid, bars []types.Bar) (*Outcome, error) {
	combos, err := grid.Enumerate()
	if err != nil {
		return nil, err
	}

	o.logger.Info("starting grid search",
		zap.Int("combinations", len(combos)),
		zap.Int("workers", o.workers),
		zap.String("metric", string(o.metric)))

	results := make([]Result, len(combos))
	jobs := make(chan int)

	var wg sync.WaitGroup

	for w := 0; w < o.workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for idx := range jobs {
				results[idx] = o.runCombination(ctx, combos[idx], bars)
			}
		}()
	}

	for idx := range combos {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()

			return nil, ctx.Err()
		case jobs <- idx:
		}
	}

	close(jobs)
	wg.Wait()

	outcome := &Outcome{Results: results}
	outcome.Best = selectBest(results)

	if outcome.Best == nil {
		return outcome, errors.New(errors.ErrCodeOptimizerNoResults, "no combination produced a usable result")
	}

	return outcome, nil
}

func (o *Optimizer) runCombination(ctx context.Context, combo Combination, bars []types.Bar) Result {
	cfg, err := Apply(o.baseConfig, combo)
	if err != nil {
		return Result{Combination: combo, Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return Result{Combination: combo, Err: err}
	}

	source, err := datasource.NewInMemoryDataSource(bars)
	if err != nil {
		return Result{Combination: combo, Err: err}
	}

	// Workers log through a no-op logger so output stays deterministic
	// and readable regardless of pool size.
	eng := enginev1.NewBacktestEngineV1(logger.NewNopLogger())

	if err := eng.SetDataSource(source); err != nil {
		return Result{Combination: combo, Err: err}
	}

	eng.SetConfig(cfg)

	runResult, err := eng.Run(ctx, optional.None[engine.OnProcessBarCallback]())
	if err != nil {
		o.logger.Warn("combination failed", zap.Any("combination", combo), zap.Error(err))

		return Result{Combination: combo, Err: err}
	}

	return Result{
		Combination: combo,
		MetricValue: o.metric.extract(runResult.Report),
		Report:      runResult.Report,
	}
}

// selectBest picks the highest metric value among successful runs; ties go
// to the lower max drawdown, then to the earlier combination in enumeration
// order so repeated searches agree.
func selectBest(results []Result) *Result {
	var best *Result

	for i := range results {
		r := &results[i]
		if r.Err != nil {
			continue
		}

		if math.IsNaN(r.MetricValue) {
			continue
		}

		if best == nil || betterThan(r, best) {
			best = r
		}
	}

	return best
}

func betterThan(candidate, incumbent *Result) bool {
	if candidate.MetricValue != incumbent.MetricValue {
		return candidate.MetricValue > incumbent.MetricValue
	}

	return candidate.Report.MaxDrawdown < incumbent.Report.MaxDrawdown
}
