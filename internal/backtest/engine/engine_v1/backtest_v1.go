package engine

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/tidemark-lab/tidemark/internal/backtest/engine"
	"github.com/tidemark-lab/tidemark/internal/backtest/performance"
	"github.com/tidemark-lab/tidemark/internal/datasource"
	"github.com/tidemark-lab/tidemark/internal/indicator"
	"github.com/tidemark-lab/tidemark/internal/integrator"
	"github.com/tidemark-lab/tidemark/internal/logger"
	"github.com/tidemark-lab/tidemark/internal/ml"
	"github.com/tidemark-lab/tidemark/internal/report"
	"github.com/tidemark-lab/tidemark/internal/sentiment"
	"github.com/tidemark-lab/tidemark/internal/strategy"
	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/internal/version"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

var _ engine.Engine = (*BacktestEngineV1)(nil)

// BacktestEngineV1 replays a bar series through the four signal categories,
// fuses them per bar, and simulates executions against the same bar's close.
type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	dataSource    datasource.DataSource
	resultsFolder string

	sentimentScorer sentiment.Scorer
	mlPredictor     ml.Predictor

	logger *logger.Logger
}

// NewBacktestEngineV1 creates an engine with a zero sentiment feed and the
// baseline momentum predictor. Both can be replaced before Run.
func NewBacktestEngineV1(log *logger.Logger) *BacktestEngineV1 {
	return &BacktestEngineV1{
		config:          DefaultConfig(),
		sentimentScorer: sentiment.NewStaticScorer(0),
		mlPredictor:     ml.NewMomentumPredictor(),
		logger:          log,
	}
}

// Initialize implements engine.Engine. Absent fields keep their defaults.
func (b *BacktestEngineV1) Initialize(config string) error {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(config), &cfg); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to parse config", err)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	b.config = cfg

	return nil
}

// SetConfig replaces the engine configuration directly. The caller is
// expected to have validated it; Run fails later otherwise.
func (b *BacktestEngineV1) SetConfig(config BacktestEngineV1Config) {
	b.config = config
}

// SetSoloCategory reweights the run so one signal family carries the whole
// decision. The configured thresholds are kept.
func (b *BacktestEngineV1) SetSoloCategory(category types.SignalCategory) error {
	weights := integrator.SoloWeights(category)
	if err := weights.Validate(); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "unknown signal category %q", string(category))
	}

	b.config.Weights = weights

	return nil
}

// SetDataSource implements engine.Engine.
func (b *BacktestEngineV1) SetDataSource(source datasource.DataSource) error {
	if source == nil {
		return errors.New(errors.ErrCodeBacktestNoDatasource, "data source is nil")
	}

	b.dataSource = source

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder

	return nil
}

// SetSentimentScorer replaces the sentiment feed.
func (b *BacktestEngineV1) SetSentimentScorer(scorer sentiment.Scorer) {
	if scorer != nil {
		b.sentimentScorer = scorer
	}
}

// SetMLPredictor replaces the prediction model.
func (b *BacktestEngineV1) SetMLPredictor(predictor ml.Predictor) {
	if predictor != nil {
		b.mlPredictor = predictor
	}
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	return b.config.GenerateSchemaJSON()
}

// Run implements engine.Engine. The decision for each bar uses only bars at
// or before it; warmup bars produce no signal and no equity point.
func (b *BacktestEngineV1) Run(ctx context.Context, onProcessBar optional.Option[engine.OnProcessBarCallback]) (*engine.RunResult, error) {
	if b.dataSource == nil {
		return nil, errors.New(errors.ErrCodeBacktestNoDatasource, "no data source configured")
	}

	technical, err := indicator.NewEngine(b.config.Indicators)
	if err != nil {
		return nil, err
	}

	strategies, err := strategy.NewEngine(b.config.Strategies)
	if err != nil {
		return nil, err
	}

	fuser, err := integrator.NewIntegrator(b.config.Weights, b.config.Thresholds, b.logger)
	if err != nil {
		return nil, err
	}

	bars, err := b.dataSource.GetBars(b.config.StartTime, b.config.EndTime)
	if err != nil {
		return nil, err
	}

	warmup := warmupBars(technical, strategies, b.mlPredictor)
	if len(bars) <= warmup {
		return nil, errors.NewInsufficientDataErrorf(warmup+1, len(bars), "",
			"series has %d bars but warmup needs %d", len(bars), warmup)
	}

	simulator := NewTradeSimulator(b.config, b.logger)
	runID := uuid.New().String()

	b.logger.Info("starting backtest run",
		zap.String("run_id", runID),
		zap.Int("bars", len(bars)),
		zap.Int("warmup", warmup))

	peak := b.config.InitialCapital
	aborted := false

	for i := warmup; i < len(bars); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		bar := bars[i]
		window := bars[:i+1]

		signals := b.categorySignals(window, technical, strategies)
		integrated := fuser.Integrate(bar.Time, signals)

		result := simulator.ProcessBar(integrated, bar)
		b.logger.Debug("processed bar",
			zap.Time("bar_time", bar.Time),
			zap.Float64("signal", integrated.Value),
			zap.String("decision", string(integrated.Decision)),
			zap.String("result", string(result)))

		total := simulator.TotalValue(bar.Close)
		if total > peak {
			peak = total
		}

		if b.config.MaxDrawdownAbort > 0 && peak > 0 {
			drawdown := (peak - total) / peak
			if drawdown > b.config.MaxDrawdownAbort {
				b.logger.Warn("drawdown cap reached, stopping replay early",
					zap.Float64("drawdown", drawdown),
					zap.Float64("cap", b.config.MaxDrawdownAbort),
					zap.Time("bar_time", bar.Time))

				aborted = true

				break
			}
		}

		if onProcessBar.IsSome() {
			if err := onProcessBar.Unwrap()(i-warmup+1, len(bars)-warmup); err != nil {
				return nil, err
			}
		}
	}

	result, err := b.finishRun(runID, bars[0].Symbol, simulator)
	if err != nil {
		return nil, err
	}

	if aborted {
		b.logger.Info("run finished after drawdown abort", zap.String("run_id", runID))
	}

	return result, nil
}

// categorySignals computes all four category values for the window. A not
// ready or failing category contributes NaN-free 0 via the integrator's
// missing-value handling, so one bad feed never kills the run.
func (b *BacktestEngineV1) categorySignals(window []types.Bar, technical *indicator.Engine, strategies *strategy.Engine) map[types.SignalCategory]float64 {
	barTime := window[len(window)-1].Time
	signals := make(map[types.SignalCategory]float64, len(types.AllCategories))

	if sig, err := technical.CategorySignal(window); err == nil {
		signals[types.CategoryTechnical] = sig.Value
	} else {
		b.logger.Warn("technical signal unavailable", zap.Time("bar_time", barTime), zap.Error(err))
	}

	if sig, err := strategies.CategorySignal(window); err == nil {
		signals[types.CategoryStrategy] = sig.Value
	} else {
		b.logger.Warn("strategy signal unavailable", zap.Time("bar_time", barTime), zap.Error(err))
	}

	if sig, err := b.sentimentScorer.Score(barTime); err == nil {
		signals[types.CategorySentiment] = sig.Value
	} else {
		b.logger.Warn("sentiment signal unavailable", zap.Time("bar_time", barTime), zap.Error(err))
	}

	if value, err := b.mlPredictor.Predict(window); err == nil {
		signals[types.CategoryML] = value
	} else {
		b.logger.Warn("ml signal unavailable", zap.Time("bar_time", barTime), zap.Error(err))
	}

	return signals
}

func (b *BacktestEngineV1) finishRun(runID, symbol string, simulator *TradeSimulator) (*engine.RunResult, error) {
	equity := simulator.Equity()
	trades := simulator.Trades()

	reportData, err := performance.Evaluate(equity, trades, performance.Options{
		InitialCapital: b.config.InitialCapital,
		RiskFreeRate:   b.config.RiskFreeRate,
		PeriodsPerYear: b.config.PeriodsPerYear,
	})
	if err != nil {
		return nil, err
	}

	reportData.ID = runID
	reportData.Symbol = symbol
	reportData.Timestamp = time.Now().UTC()
	reportData.EngineVersion = version.Version

	result := &engine.RunResult{
		RunID:  runID,
		Report: reportData,
		Trades: trades,
		Equity: equity,
	}

	if b.resultsFolder == "" {
		return result, nil
	}

	folder := filepath.Join(b.resultsFolder, runID)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestNoResultsDir, "failed to create results folder", err)
	}

	if err := types.WriteReport(filepath.Join(folder, "report.yaml"), reportData); err != nil {
		return nil, err
	}

	state, err := NewBacktestState(b.logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := state.Close(); closeErr != nil {
			b.logger.Error("failed to close state", zap.Error(closeErr))
		}
	}()

	if err := state.Initialize(); err != nil {
		return nil, err
	}

	if err := state.Flush(trades, equity); err != nil {
		return nil, err
	}

	if err := state.Write(folder); err != nil {
		return nil, err
	}

	if err := report.WriteEquityChart(equity, symbol, filepath.Join(folder, "equity.html")); err != nil {
		return nil, err
	}

	result.ResultsFolder = folder

	return result, nil
}

// warmupBars is the longest MinBars requirement across signal producers.
func warmupBars(technical *indicator.Engine, strategies *strategy.Engine, predictor ml.Predictor) int {
	warmup := technical.MinBars()

	if strategies.MinBars() > warmup {
		warmup = strategies.MinBars()
	}

	if predictor.MinBars() > warmup {
		warmup = predictor.MinBars()
	}

	// MinBars is a length requirement; the first decidable bar index is
	// one less.
	return warmup - 1
}
