package engine

import (
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tidemark-lab/tidemark/internal/logger"
	"github.com/tidemark-lab/tidemark/internal/types"
)

// TradeSimulator owns the portfolio state of one run: cash and the long-only
// position. Every processed bar emits exactly one EquityPoint; infeasible
// trades are skipped outcomes, never errors.
type TradeSimulator struct {
	cash     float64
	position float64

	commissionRate      float64
	slippageRate        float64
	maxPositionFraction float64
	decimalPrecision    int32

	trades          []types.Trade
	equity          []types.EquityPoint
	totalCommission float64

	logger *logger.Logger
}

// NewTradeSimulator creates a simulator seeded with the configured capital.
func NewTradeSimulator(config BacktestEngineV1Config, log *logger.Logger) *TradeSimulator {
	return &TradeSimulator{
		cash:                config.InitialCapital,
		position:            0,
		commissionRate:      config.CommissionRate,
		slippageRate:        config.SlippageRate,
		maxPositionFraction: config.MaxPositionFraction,
		decimalPrecision:    config.DecimalPrecision,
		logger:              log,
	}
}

// Cash returns the current cash balance.
func (s *TradeSimulator) Cash() float64 {
	return s.cash
}

// Position returns the current position quantity.
func (s *TradeSimulator) Position() float64 {
	return s.position
}

// TotalValue marks the portfolio at the given price.
func (s *TradeSimulator) TotalValue(markPrice float64) float64 {
	return s.cash + s.position*markPrice
}

// Trades returns the append-only trade ledger.
func (s *TradeSimulator) Trades() []types.Trade {
	return s.trades
}

// Equity returns the per-bar equity curve.
func (s *TradeSimulator) Equity() []types.EquityPoint {
	return s.equity
}

// TotalCommission returns the cumulative commission paid.
func (s *TradeSimulator) TotalCommission() float64 {
	return s.totalCommission
}

// ProcessBar applies one integrated signal to the bar it was derived from
// and emits the bar's EquityPoint. The decision may only use data at or
// before the bar; the fill is priced off the same bar's close.
func (s *TradeSimulator) ProcessBar(signal types.IntegratedSignal, bar types.Bar) types.ExecutionResult {
	var result types.ExecutionResult

	switch signal.Decision {
	case types.DecisionBuy:
		result = s.executeBuy(signal, bar)
	case types.DecisionSell:
		result = s.executeSell(signal, bar)
	default:
		result = types.ExecutionHeld
	}

	s.equity = append(s.equity, types.NewEquityPoint(bar.Time, s.cash, s.position, bar.Close))

	return result
}

func (s *TradeSimulator) executeBuy(signal types.IntegratedSignal, bar types.Bar) types.ExecutionResult {
	executionPrice := bar.Close * (1 + s.slippageRate)
	if executionPrice <= 0 {
		return types.ExecutionSkippedInvalidSignal
	}

	notional := math.Abs(signal.Value) * s.maxPositionFraction * s.TotalValue(bar.Close)

	quantity := roundQuantity(notional/executionPrice, s.decimalPrecision)
	if quantity <= 0 {
		s.logger.Debug("buy quantity rounded to zero",
			zap.Float64("signal", signal.Value),
			zap.Time("bar_time", bar.Time))

		return types.ExecutionSkippedInvalidSignal
	}

	grossCost := quantity * executionPrice
	commission := grossCost * s.commissionRate
	totalCost := grossCost + commission

	if totalCost > s.cash {
		s.logger.Info("buy skipped, insufficient cash",
			zap.Float64("total_cost", totalCost),
			zap.Float64("cash", s.cash),
			zap.Time("bar_time", bar.Time))

		return types.ExecutionSkippedInsufficientFunds
	}

	s.cash -= totalCost
	s.position += quantity
	s.totalCommission += commission

	s.appendTrade(types.Trade{
		ID:              uuid.New().String(),
		Symbol:          bar.Symbol,
		Time:            bar.Time,
		Side:            types.TradeSideBuy,
		RequestedSignal: signal.Value,
		FillPrice:       executionPrice,
		Quantity:        quantity,
		Commission:      commission,
	})

	return types.ExecutionExecuted
}

func (s *TradeSimulator) executeSell(signal types.IntegratedSignal, bar types.Bar) types.ExecutionResult {
	if s.position <= 0 {
		s.logger.Info("sell skipped, no position held",
			zap.Float64("signal", signal.Value),
			zap.Time("bar_time", bar.Time))

		return types.ExecutionSkippedInsufficientPosition
	}

	executionPrice := bar.Close * (1 - s.slippageRate)
	if executionPrice <= 0 {
		return types.ExecutionSkippedInvalidSignal
	}

	// The signal magnitude sets the share of the position to unwind,
	// capped at the full position.
	share := math.Min(math.Abs(signal.Value)*s.maxPositionFraction, 1)

	quantity := roundQuantity(share*s.position, s.decimalPrecision)
	if quantity > s.position {
		quantity = s.position
	}

	if quantity <= 0 {
		s.logger.Debug("sell quantity rounded to zero",
			zap.Float64("signal", signal.Value),
			zap.Time("bar_time", bar.Time))

		return types.ExecutionSkippedInvalidSignal
	}

	grossProceeds := quantity * executionPrice
	commission := grossProceeds * s.commissionRate

	s.cash += grossProceeds - commission
	s.position -= quantity
	s.totalCommission += commission

	if s.position < 0 {
		s.position = 0
	}

	s.appendTrade(types.Trade{
		ID:              uuid.New().String(),
		Symbol:          bar.Symbol,
		Time:            bar.Time,
		Side:            types.TradeSideSell,
		RequestedSignal: signal.Value,
		FillPrice:       executionPrice,
		Quantity:        quantity,
		Commission:      commission,
	})

	return types.ExecutionExecuted
}

func (s *TradeSimulator) appendTrade(trade types.Trade) {
	if err := trade.Validate(); err != nil {
		// A fill that fails validation is a programming error in the
		// sizing logic; surface it loudly but keep the run alive.
		s.logger.Error("generated invalid trade", zap.Error(err))
	}

	s.trades = append(s.trades, trade)
}

// roundQuantity truncates a quantity to the configured precision so fills
// never exceed the sized amount.
func roundQuantity(quantity float64, precision int32) float64 {
	rounded, _ := decimal.NewFromFloat(quantity).Truncate(precision).Float64()

	return rounded
}
