package engine

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/tidemark-lab/tidemark/internal/backtest/engine"
	"github.com/tidemark-lab/tidemark/internal/datasource"
	"github.com/tidemark-lab/tidemark/internal/integrator"
	"github.com/tidemark-lab/tidemark/internal/logger"
	"github.com/tidemark-lab/tidemark/internal/ml"
	"github.com/tidemark-lab/tidemark/internal/sentiment"
	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

type BacktestV1TestSuite struct {
	suite.Suite
	logger *logger.Logger
}

func TestBacktestV1Suite(t *testing.T) {
	suite.Run(t, new(BacktestV1TestSuite))
}

func (s *BacktestV1TestSuite) SetupTest() {
	s.logger = logger.NewNopLogger()
}

func (s *BacktestV1TestSuite) oscillatingBars(n int) []types.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, n)

	for i := range bars {
		price := 100 + 10*math.Sin(float64(i)/9) + 0.01*float64(i)
		bars[i] = types.Bar{
			Symbol: "BTCUSDT",
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   price,
			High:   price * 1.001,
			Low:    price * 0.999,
			Close:  price,
			Volume: 100 + 10*math.Cos(float64(i)/5),
		}
	}

	return bars
}

func (s *BacktestV1TestSuite) flatBars(n int) []types.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, n)

	for i := range bars {
		bars[i] = types.Bar{
			Symbol: "BTCUSDT",
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   100,
			High:   100,
			Low:    100,
			Close:  100,
			Volume: 100,
		}
	}

	return bars
}

func (s *BacktestV1TestSuite) newEngine(bars []types.Bar) *BacktestEngineV1 {
	source, err := datasource.NewInMemoryDataSource(bars)
	s.Require().NoError(err)

	eng := NewBacktestEngineV1(s.logger)
	s.Require().NoError(eng.SetDataSource(source))

	return eng
}

func (s *BacktestV1TestSuite) TestRunProducesOneEquityPointPerDecidedBar() {
	bars := s.oscillatingBars(120)
	eng := s.newEngine(bars)

	result, err := eng.Run(context.Background(), optional.None[engine.OnProcessBarCallback]())
	s.Require().NoError(err)
	s.Require().NotNil(result)

	// Trend following needs the longest window, 70 bars, so the first 69
	// bars are warmup and every later bar yields exactly one point.
	s.Len(result.Equity, len(bars)-69)
	s.NotEmpty(result.RunID)
	s.Equal("BTCUSDT", result.Report.Symbol)
	s.NotEmpty(result.Report.EngineVersion)
	s.Empty(result.ResultsFolder)

	for i := 1; i < len(result.Equity); i++ {
		s.True(result.Equity[i].Time.After(result.Equity[i-1].Time))
	}
}

func (s *BacktestV1TestSuite) TestRunCallbackProgress() {
	bars := s.oscillatingBars(80)
	eng := s.newEngine(bars)

	var calls []int
	total := 0

	callback := engine.OnProcessBarCallback(func(current, t int) error {
		calls = append(calls, current)
		total = t

		return nil
	})

	_, err := eng.Run(context.Background(), optional.Some(callback))
	s.Require().NoError(err)

	s.Require().Len(calls, 80-69)
	s.Equal(1, calls[0])
	s.Equal(80-69, calls[len(calls)-1])
	s.Equal(80-69, total)
}

func (s *BacktestV1TestSuite) TestRunRejectsShortSeries() {
	bars := s.oscillatingBars(50)
	eng := s.newEngine(bars)

	_, err := eng.Run(context.Background(), optional.None[engine.OnProcessBarCallback]())
	s.Require().Error(err)
	s.True(errors.IsInsufficientDataError(err))
}

func (s *BacktestV1TestSuite) TestRunWithoutDataSource() {
	eng := NewBacktestEngineV1(s.logger)

	_, err := eng.Run(context.Background(), optional.None[engine.OnProcessBarCallback]())
	s.Require().Error(err)
	s.Equal(errors.ErrCodeBacktestNoDatasource, errors.GetCode(err))
}

func (s *BacktestV1TestSuite) TestRunHonorsContextCancellation() {
	bars := s.oscillatingBars(120)
	eng := s.newEngine(bars)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Run(ctx, optional.None[engine.OnProcessBarCallback]())
	s.Require().ErrorIs(err, context.Canceled)
}

func (s *BacktestV1TestSuite) TestInitializeOverridesDefaults() {
	eng := NewBacktestEngineV1(s.logger)

	s.Require().NoError(eng.Initialize(`
initial_capital: 500000
commission_rate: 0.002
`))

	s.Equal(500_000.0, eng.config.InitialCapital)
	s.Equal(0.002, eng.config.CommissionRate)
	// Absent keys keep their defaults.
	s.Equal(0.3, eng.config.MaxPositionFraction)
}

func (s *BacktestV1TestSuite) TestInitializeRejectsInvalidConfig() {
	eng := NewBacktestEngineV1(s.logger)

	err := eng.Initialize(`initial_capital: -1`)
	s.Require().Error(err)
	s.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
}

func (s *BacktestV1TestSuite) TestDrawdownAbortStillProducesReport() {
	bars := s.flatBars(120)
	eng := s.newEngine(bars)

	// Sentiment alone drives the fused signal, so every decided bar is a
	// BUY whose slippage and commission bleed total value below the cap.
	cfg := DefaultConfig()
	cfg.Weights = integrator.Weights{Technical: 0, Strategy: 0, Sentiment: 1, ML: 0}
	cfg.CommissionRate = 0.01
	cfg.SlippageRate = 0.01
	cfg.MaxDrawdownAbort = 0.0001
	s.Require().NoError(cfg.Validate())

	eng.SetConfig(cfg)
	eng.SetSentimentScorer(sentiment.NewStaticScorer(1))
	eng.SetMLPredictor(ml.NewStaticPredictor(0))

	result, err := eng.Run(context.Background(), optional.None[engine.OnProcessBarCallback]())
	s.Require().NoError(err)
	s.Require().NotNil(result)

	s.NotEmpty(result.Equity)
	s.Less(len(result.Equity), 120-69)
	s.NotEmpty(result.Trades)
}

func (s *BacktestV1TestSuite) TestRunWritesResultArtifacts() {
	bars := s.oscillatingBars(120)
	eng := s.newEngine(bars)

	folder := s.T().TempDir()
	s.Require().NoError(eng.SetResultsFolder(folder))

	result, err := eng.Run(context.Background(), optional.None[engine.OnProcessBarCallback]())
	s.Require().NoError(err)
	s.Require().NotEmpty(result.ResultsFolder)
	s.Equal(filepath.Join(folder, result.RunID), result.ResultsFolder)

	for _, name := range []string{"report.yaml", "trades.csv", "equity.csv", "equity.html"} {
		info, statErr := os.Stat(filepath.Join(result.ResultsFolder, name))
		s.Require().NoError(statErr, name)
		s.Greater(info.Size(), int64(0), name)
	}
}

func (s *BacktestV1TestSuite) TestGetConfigSchema() {
	eng := NewBacktestEngineV1(s.logger)

	schema, err := eng.GetConfigSchema()
	s.Require().NoError(err)
	s.Contains(schema, "initial_capital")
}

func (s *BacktestV1TestSuite) TestSetSoloCategory() {
	eng := NewBacktestEngineV1(s.logger)

	s.Require().NoError(eng.SetSoloCategory(types.CategorySentiment))
	s.Equal(1.0, eng.config.Weights.Sentiment)
	s.Zero(eng.config.Weights.Technical)

	err := eng.SetSoloCategory("news")
	s.Require().Error(err)
	s.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))
}
