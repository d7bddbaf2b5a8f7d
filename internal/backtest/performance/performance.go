// Package performance reduces a run's equity curve and trade ledger to the
// standard risk-adjusted metrics.
package performance

import (
	"math"
	"sort"

	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// Options carries the annualization inputs.
type Options struct {
	// InitialCapital is the run's starting cash.
	InitialCapital float64
	// RiskFreeRate is the annual risk-free rate.
	RiskFreeRate float64
	// PeriodsPerYear is the number of bar periods in one year.
	PeriodsPerYear float64
}

// Evaluate computes the performance metrics for one run. The returned report
// carries only the derived metric fields; run identity fields are the
// caller's responsibility.
func Evaluate(equity []types.EquityPoint, trades []types.Trade, opts Options) (types.PerformanceReport, error) {
	if len(equity) == 0 {
		return types.PerformanceReport{}, errors.New(errors.ErrCodeEmptySeries, "no equity points to evaluate")
	}

	if opts.InitialCapital <= 0 {
		return types.PerformanceReport{}, errors.New(errors.ErrCodeInvalidParameter, "initial capital must be positive")
	}

	finalValue := equity[len(equity)-1].TotalValue
	totalReturn := (finalValue - opts.InitialCapital) / opts.InitialCapital

	rets := periodReturns(equity)
	vol := stdev(rets)

	annualized := annualizedReturn(totalReturn, float64(len(rets)), opts.PeriodsPerYear)

	sharpe := 0.0

	if vol > 0 {
		riskFreePerPeriod := opts.RiskFreeRate / opts.PeriodsPerYear
		sharpe = (mean(rets) - riskFreePerPeriod) / vol * math.Sqrt(opts.PeriodsPerYear)
	}

	maxDD := maxDrawdown(equity)

	calmar := 0.0
	if maxDD > 0 {
		calmar = annualized / maxDD
	}

	wins, losses, grossProfit, grossLoss := closedTradeStats(trades)

	winRate := 0.0
	if wins+losses > 0 {
		winRate = float64(wins) / float64(wins+losses)
	}

	profitFactor := 0.0

	switch {
	case grossLoss > 0:
		profitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		// No losing trades: by convention the factor is +Inf, not 0,
		// so an all-winning run is never ranked below a losing one.
		profitFactor = math.Inf(1)
	}

	totalCommission := 0.0
	for _, t := range trades {
		totalCommission += t.Commission
	}

	return types.PerformanceReport{
		InitialCapital:   opts.InitialCapital,
		FinalValue:       finalValue,
		TotalReturn:      totalReturn,
		AnnualizedReturn: annualized,
		Volatility:       vol,
		SharpeRatio:      sharpe,
		MaxDrawdown:      maxDD,
		WinRate:          winRate,
		ProfitFactor:     profitFactor,
		CalmarRatio:      calmar,
		VaR95:            valueAtRisk95(rets),
		TradeCount:       len(trades),
		WinningTrades:    wins,
		LosingTrades:     losses,
		TotalCommission:  totalCommission,
	}, nil
}

func periodReturns(equity []types.EquityPoint) []float64 {
	rets := make([]float64, 0, len(equity)-1)

	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].TotalValue
		if prev == 0 {
			rets = append(rets, 0)

			continue
		}

		rets = append(rets, (equity[i].TotalValue-prev)/prev)
	}

	return rets
}

func annualizedReturn(totalReturn, periods, periodsPerYear float64) float64 {
	if periods <= 0 {
		return 0
	}

	growth := 1 + totalReturn
	if growth <= 0 {
		// Capital fully wiped out within the run.
		return -1
	}

	return math.Pow(growth, periodsPerYear/periods) - 1
}

// maxDrawdown is the largest peak-to-trough decline of the equity curve,
// always >= 0 and 0 iff the curve never declines.
func maxDrawdown(equity []types.EquityPoint) float64 {
	peak := equity[0].TotalValue
	maxDD := 0.0

	for _, e := range equity {
		if e.TotalValue > peak {
			peak = e.TotalValue
		}

		if peak > 0 {
			dd := (peak - e.TotalValue) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}

// closedTradeStats attributes P&L at each SELL against the most recent BUY
// fill price. SELLs before any BUY are ignored.
func closedTradeStats(trades []types.Trade) (wins, losses int, grossProfit, grossLoss float64) {
	lastBuyPrice := 0.0
	haveBuy := false

	for _, t := range trades {
		switch t.Side {
		case types.TradeSideBuy:
			lastBuyPrice = t.FillPrice
			haveBuy = true
		case types.TradeSideSell:
			if !haveBuy {
				continue
			}

			pnl := (t.FillPrice-lastBuyPrice)*t.Quantity - t.Commission

			switch {
			case pnl > 0:
				wins++

				grossProfit += pnl
			case pnl < 0:
				losses++

				grossLoss += -pnl
			}
		}
	}

	return wins, losses, grossProfit, grossLoss
}

// valueAtRisk95 is the magnitude of the 5th-percentile per-period return,
// 0 when returns are non-negative at that percentile.
func valueAtRisk95(rets []float64) float64 {
	if len(rets) == 0 {
		return 0
	}

	sorted := make([]float64, len(rets))
	copy(sorted, rets)
	sort.Float64s(sorted)

	idx := int(math.Floor(0.05 * float64(len(sorted)-1)))

	p5 := sorted[idx]
	if p5 >= 0 {
		return 0
	}

	return -p5
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

func stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	m := mean(values)

	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(values)-1))
}
