package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tidemark-lab/tidemark/internal/logger"
	"github.com/tidemark-lab/tidemark/internal/types"
)

type SimulatorTestSuite struct {
	suite.Suite
	logger *logger.Logger
}

func TestSimulatorSuite(t *testing.T) {
	suite.Run(t, new(SimulatorTestSuite))
}

func (s *SimulatorTestSuite) SetupTest() {
	s.logger = logger.NewNopLogger()
}

func (s *SimulatorTestSuite) bar(t time.Time, close float64) types.Bar {
	return types.Bar{
		Symbol: "BTCUSDT",
		Time:   t,
		Open:   close,
		High:   close,
		Low:    close,
		Close:  close,
		Volume: 100,
	}
}

func (s *SimulatorTestSuite) buySignal(t time.Time, value float64) types.IntegratedSignal {
	return types.IntegratedSignal{Time: t, Value: value, Decision: types.DecisionBuy}
}

func (s *SimulatorTestSuite) sellSignal(t time.Time, value float64) types.IntegratedSignal {
	return types.IntegratedSignal{Time: t, Value: value, Decision: types.DecisionSell}
}

func (s *SimulatorTestSuite) TestBuyAccounting() {
	cfg := DefaultConfig()
	cfg.InitialCapital = 3_000_000
	cfg.CommissionRate = 0.001
	cfg.SlippageRate = 0
	cfg.MaxPositionFraction = 1

	sim := NewTradeSimulator(cfg, s.logger)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// Notional = (1/60) * 3,000,000 = 50,000 at a 50,000,000 close,
	// so the fill is 0.001 units costing 50,000 plus 50 commission.
	result := sim.ProcessBar(s.buySignal(now, 1.0/60.0), s.bar(now, 50_000_000))

	s.Equal(types.ExecutionExecuted, result)
	s.Require().Len(sim.Trades(), 1)

	trade := sim.Trades()[0]
	s.Equal(types.TradeSideBuy, trade.Side)
	s.InDelta(0.001, trade.Quantity, 1e-9)
	s.InDelta(50_000_000, trade.FillPrice, 1e-6)
	s.InDelta(50, trade.Commission, 1e-6)

	s.InDelta(2_949_950, sim.Cash(), 1e-4)
	s.InDelta(0.001, sim.Position(), 1e-9)
	s.InDelta(50, sim.TotalCommission(), 1e-6)
}

func (s *SimulatorTestSuite) TestBuyAppliesSlippage() {
	cfg := DefaultConfig()
	cfg.SlippageRate = 0.01

	sim := NewTradeSimulator(cfg, s.logger)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	result := sim.ProcessBar(s.buySignal(now, 1), s.bar(now, 100))

	s.Equal(types.ExecutionExecuted, result)
	s.Require().Len(sim.Trades(), 1)
	s.InDelta(101, sim.Trades()[0].FillPrice, 1e-9)
}

func (s *SimulatorTestSuite) TestHoldNeverMutatesState() {
	cfg := DefaultConfig()
	sim := NewTradeSimulator(cfg, s.logger)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		signal := types.IntegratedSignal{
			Time:     now.Add(time.Duration(i) * time.Minute),
			Value:    0,
			Decision: types.DecisionHold,
		}

		result := sim.ProcessBar(signal, s.bar(signal.Time, 100+float64(i)))
		s.Equal(types.ExecutionHeld, result)
	}

	s.Equal(cfg.InitialCapital, sim.Cash())
	s.Zero(sim.Position())
	s.Empty(sim.Trades())
	s.Zero(sim.TotalCommission())
	s.Len(sim.Equity(), 5)
}

func (s *SimulatorTestSuite) TestSellWithoutPosition() {
	cfg := DefaultConfig()
	sim := NewTradeSimulator(cfg, s.logger)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	result := sim.ProcessBar(s.sellSignal(now, -0.8), s.bar(now, 100))

	s.Equal(types.ExecutionSkippedInsufficientPosition, result)
	s.Empty(sim.Trades())
	s.Equal(cfg.InitialCapital, sim.Cash())
	s.Len(sim.Equity(), 1)
}

func (s *SimulatorTestSuite) TestBuyInsufficientFunds() {
	cfg := DefaultConfig()
	cfg.MaxPositionFraction = 1
	cfg.SlippageRate = 0
	cfg.CommissionRate = 0.001

	sim := NewTradeSimulator(cfg, s.logger)

	// A full-size buy costs cash * 1.001, which cash cannot cover.
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	result := sim.ProcessBar(s.buySignal(now, 1), s.bar(now, 100))

	s.Equal(types.ExecutionSkippedInsufficientFunds, result)
	s.Empty(sim.Trades())
	s.Equal(cfg.InitialCapital, sim.Cash())
}

func (s *SimulatorTestSuite) TestBuyQuantityRoundsToZero() {
	cfg := DefaultConfig()
	cfg.DecimalPrecision = 0
	cfg.MaxPositionFraction = 0.1

	sim := NewTradeSimulator(cfg, s.logger)

	// 0.1 * 0.1 * 3,000,000 = 30,000 notional at a 50,000,000 close sizes
	// 0.0006 units, which truncates to zero whole units.
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	result := sim.ProcessBar(s.buySignal(now, 0.1), s.bar(now, 50_000_000))

	s.Equal(types.ExecutionSkippedInvalidSignal, result)
	s.Empty(sim.Trades())
	s.Equal(cfg.InitialCapital, sim.Cash())
}

func (s *SimulatorTestSuite) TestSellReducesPosition() {
	cfg := DefaultConfig()
	cfg.SlippageRate = 0
	cfg.CommissionRate = 0
	cfg.MaxPositionFraction = 1

	sim := NewTradeSimulator(cfg, s.logger)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Equal(types.ExecutionExecuted, sim.ProcessBar(s.buySignal(now, 0.5), s.bar(now, 100)))

	bought := sim.Position()
	s.Greater(bought, 0.0)

	later := now.Add(time.Minute)
	result := sim.ProcessBar(s.sellSignal(later, -0.5), s.bar(later, 100))

	s.Equal(types.ExecutionExecuted, result)
	s.Require().Len(sim.Trades(), 2)

	// The sell unwinds half the position at the same price.
	s.InDelta(bought/2, sim.Position(), 1e-6)
	s.InDelta(bought/2, sim.Trades()[1].Quantity, 1e-6)
}

func (s *SimulatorTestSuite) TestFullUnwindNeverGoesShort() {
	cfg := DefaultConfig()
	cfg.SlippageRate = 0
	cfg.CommissionRate = 0
	cfg.MaxPositionFraction = 1

	sim := NewTradeSimulator(cfg, s.logger)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sim.ProcessBar(s.buySignal(now, 1.0/3.0), s.bar(now, 100))

	later := now.Add(time.Minute)
	result := sim.ProcessBar(s.sellSignal(later, -1), s.bar(later, 100))

	s.Equal(types.ExecutionExecuted, result)
	s.Zero(sim.Position())
	s.GreaterOrEqual(sim.Cash(), 0.0)
}

func (s *SimulatorTestSuite) TestEquityPointPerBar() {
	cfg := DefaultConfig()
	sim := NewTradeSimulator(cfg, s.logger)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	signals := []types.IntegratedSignal{
		s.buySignal(now, 0.8),
		{Time: now.Add(time.Minute), Value: 0, Decision: types.DecisionHold},
		s.sellSignal(now.Add(2*time.Minute), -0.6),
	}

	for i, sig := range signals {
		sim.ProcessBar(sig, s.bar(sig.Time, 100+float64(i)))
	}

	equity := sim.Equity()
	s.Require().Len(equity, 3)

	for i, point := range equity {
		s.Equal(signals[i].Time, point.Time)
		s.InDelta(point.Cash+point.PositionQuantity*point.MarkPrice, point.TotalValue, 1e-9)
	}
}

func (s *SimulatorTestSuite) TestCommissionAccumulates() {
	cfg := DefaultConfig()
	cfg.SlippageRate = 0
	cfg.CommissionRate = 0.01
	cfg.MaxPositionFraction = 1

	sim := NewTradeSimulator(cfg, s.logger)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sim.ProcessBar(s.buySignal(now, 0.5), s.bar(now, 100))

	later := now.Add(time.Minute)
	sim.ProcessBar(s.sellSignal(later, -1), s.bar(later, 100))

	s.Require().Len(sim.Trades(), 2)
	s.InDelta(sim.Trades()[0].Commission+sim.Trades()[1].Commission, sim.TotalCommission(), 1e-9)
	s.Greater(sim.TotalCommission(), 0.0)
}
