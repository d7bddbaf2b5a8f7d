package performance

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tidemark-lab/tidemark/internal/types"
)

type PerformanceTestSuite struct {
	suite.Suite
}

func TestPerformanceSuite(t *testing.T) {
	suite.Run(t, new(PerformanceTestSuite))
}

func equityFromValues(values ...float64) []types.EquityPoint {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]types.EquityPoint, len(values))

	for i, v := range values {
		points[i] = types.EquityPoint{
			Time:             base.Add(time.Duration(i) * time.Minute),
			Cash:             v,
			PositionQuantity: 0,
			MarkPrice:        0,
			TotalValue:       v,
		}
	}

	return points
}

func defaultOpts() Options {
	return Options{
		InitialCapital: 1000,
		RiskFreeRate:   0,
		PeriodsPerYear: 525_600,
	}
}

func (s *PerformanceTestSuite) TestTotalReturn() {
	report, err := Evaluate(equityFromValues(1000, 1050, 1100), nil, defaultOpts())
	s.Require().NoError(err)
	s.InDelta(0.1, report.TotalReturn, 1e-12)
	s.Equal(1100.0, report.FinalValue)
}

func (s *PerformanceTestSuite) TestFlatCurveHasZeroVolAndSharpe() {
	report, err := Evaluate(equityFromValues(1000, 1000, 1000, 1000), nil, defaultOpts())
	s.Require().NoError(err)
	s.Equal(0.0, report.Volatility)
	s.Equal(0.0, report.SharpeRatio)
	s.Equal(0.0, report.TotalReturn)
}

func (s *PerformanceTestSuite) TestMaxDrawdownZeroIffNonDecreasing() {
	report, err := Evaluate(equityFromValues(1000, 1010, 1010, 1050), nil, defaultOpts())
	s.Require().NoError(err)
	s.Equal(0.0, report.MaxDrawdown)

	report, err = Evaluate(equityFromValues(1000, 1200, 900, 1100), nil, defaultOpts())
	s.Require().NoError(err)
	s.InDelta(0.25, report.MaxDrawdown, 1e-12)
	s.GreaterOrEqual(report.MaxDrawdown, 0.0)
}

func (s *PerformanceTestSuite) TestCalmarZeroWhenNoDrawdown() {
	report, err := Evaluate(equityFromValues(1000, 1100), nil, defaultOpts())
	s.Require().NoError(err)
	s.Equal(0.0, report.CalmarRatio)
}

func makeTrade(side types.TradeSide, price, qty, commission float64, minuteOffset int) types.Trade {
	return types.Trade{
		ID:         "00000000-0000-0000-0000-000000000000",
		Symbol:     "BTCUSDT",
		Time:       time.Date(2024, 1, 1, 0, minuteOffset, 0, 0, time.UTC),
		Side:       side,
		FillPrice:  price,
		Quantity:   qty,
		Commission: commission,
	}
}

func (s *PerformanceTestSuite) TestWinRateAndProfitFactor() {
	trades := []types.Trade{
		makeTrade(types.TradeSideBuy, 100, 1, 0, 0),
		makeTrade(types.TradeSideSell, 110, 1, 0, 1), // +10
		makeTrade(types.TradeSideBuy, 100, 1, 0, 2),
		makeTrade(types.TradeSideSell, 95, 1, 0, 3), // -5
	}

	report, err := Evaluate(equityFromValues(1000, 1005), trades, defaultOpts())
	s.Require().NoError(err)
	s.InDelta(0.5, report.WinRate, 1e-12)
	s.InDelta(2.0, report.ProfitFactor, 1e-12)
	s.Equal(1, report.WinningTrades)
	s.Equal(1, report.LosingTrades)
	s.Equal(4, report.TradeCount)
}

func (s *PerformanceTestSuite) TestProfitFactorInfWhenNoLosers() {
	trades := []types.Trade{
		makeTrade(types.TradeSideBuy, 100, 1, 0, 0),
		makeTrade(types.TradeSideSell, 120, 1, 0, 1),
	}

	report, err := Evaluate(equityFromValues(1000, 1020), trades, defaultOpts())
	s.Require().NoError(err)
	s.True(math.IsInf(report.ProfitFactor, 1))
	s.Equal(1.0, report.WinRate)
}

func (s *PerformanceTestSuite) TestProfitFactorZeroWhenNoTrades() {
	report, err := Evaluate(equityFromValues(1000, 1000), nil, defaultOpts())
	s.Require().NoError(err)
	s.Equal(0.0, report.ProfitFactor)
	s.Equal(0.0, report.WinRate)
}

func (s *PerformanceTestSuite) TestSellCommissionCountsAgainstPnL() {
	trades := []types.Trade{
		makeTrade(types.TradeSideBuy, 100, 1, 0, 0),
		// Gross +1 but commission 2 turns it into a loss.
		makeTrade(types.TradeSideSell, 101, 1, 2, 1),
	}

	report, err := Evaluate(equityFromValues(1000, 999), trades, defaultOpts())
	s.Require().NoError(err)
	s.Equal(0, report.WinningTrades)
	s.Equal(1, report.LosingTrades)
}

func (s *PerformanceTestSuite) TestSellBeforeAnyBuyIgnored() {
	trades := []types.Trade{
		makeTrade(types.TradeSideSell, 110, 1, 0, 0),
	}

	report, err := Evaluate(equityFromValues(1000, 1000), trades, defaultOpts())
	s.Require().NoError(err)
	s.Equal(0, report.WinningTrades)
	s.Equal(0, report.LosingTrades)
}

func (s *PerformanceTestSuite) TestTotalCommission() {
	trades := []types.Trade{
		makeTrade(types.TradeSideBuy, 100, 1, 1.5, 0),
		makeTrade(types.TradeSideSell, 110, 1, 2.5, 1),
	}

	report, err := Evaluate(equityFromValues(1000, 1006), trades, defaultOpts())
	s.Require().NoError(err)
	s.InDelta(4.0, report.TotalCommission, 1e-12)
}

func (s *PerformanceTestSuite) TestVaR95OnLossyCurve() {
	// One heavy down period among flat ones.
	report, err := Evaluate(equityFromValues(1000, 1000, 900, 900, 900), nil, defaultOpts())
	s.Require().NoError(err)
	s.InDelta(0.1, report.VaR95, 1e-12)
}

func (s *PerformanceTestSuite) TestEmptyEquityRejected() {
	_, err := Evaluate(nil, nil, defaultOpts())
	s.Require().Error(err)
}

func (s *PerformanceTestSuite) TestAnnualizedReturnWipeout() {
	report, err := Evaluate(equityFromValues(1000, 0), nil, defaultOpts())
	s.Require().NoError(err)
	s.Equal(-1.0, report.AnnualizedReturn)
}
