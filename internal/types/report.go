package types

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PerformanceReport is the standardized reduction of one backtest run.
// Derived, immutable, produced once per run.
type PerformanceReport struct {
	// ID is the unique identifier of the backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when the run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Symbol of the replayed series.
	Symbol string `yaml:"symbol" json:"symbol"`
	// EngineVersion stamps the results format for compatibility checks.
	EngineVersion string `yaml:"engine_version" json:"engine_version"`

	// TotalReturn is (final - initial) / initial.
	TotalReturn float64 `yaml:"total_return" json:"total_return"`
	// AnnualizedReturn is the mean per-period return scaled to a year.
	AnnualizedReturn float64 `yaml:"annualized_return" json:"annualized_return"`
	// Volatility is the per-period return standard deviation.
	Volatility float64 `yaml:"volatility" json:"volatility"`
	// SharpeRatio is annualized mean excess return over volatility; 0 when
	// volatility is 0.
	SharpeRatio float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	// MaxDrawdown is the largest peak-to-trough decline of the equity curve.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
	// WinRate is winning closed trades over total closed trades; 0 with no trades.
	WinRate float64 `yaml:"win_rate" json:"win_rate"`
	// ProfitFactor is gross profit over gross loss. +Inf when there are
	// winners but no losers; 0 when there are no closed trades.
	ProfitFactor float64 `yaml:"profit_factor" json:"profit_factor"`
	// CalmarRatio is annualized return over max drawdown; 0 when drawdown is 0.
	CalmarRatio float64 `yaml:"calmar_ratio" json:"calmar_ratio"`
	// VaR95 is the 5th percentile of per-period returns.
	VaR95 float64 `yaml:"var_95" json:"var_95"`
	// TradeCount is the number of ledger entries (both sides).
	TradeCount int `yaml:"trade_count" json:"trade_count"`
	// WinningTrades and LosingTrades count closed (SELL-matched) trades.
	WinningTrades int `yaml:"winning_trades" json:"winning_trades"`
	LosingTrades  int `yaml:"losing_trades" json:"losing_trades"`
	// TotalCommission is the sum of commission across the ledger.
	TotalCommission float64 `yaml:"total_commission" json:"total_commission"`
	// FinalValue is the last equity point's total value.
	FinalValue float64 `yaml:"final_value" json:"final_value"`
	// InitialCapital is the configured starting cash.
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
}

// reportYAML mirrors PerformanceReport with ProfitFactor as a string so that
// the +Inf convention survives YAML round-trips.
type reportYAML struct {
	PerformanceReport `yaml:",inline"`
	ProfitFactorOut   string `yaml:"profit_factor_display"`
}

// WriteReport writes the report as YAML to the given path.
func WriteReport(path string, report PerformanceReport) error {
	out := reportYAML{PerformanceReport: report}
	if math.IsInf(report.ProfitFactor, 1) {
		out.ProfitFactorOut = "inf"
		out.PerformanceReport.ProfitFactor = 0
	} else {
		out.ProfitFactorOut = fmt.Sprintf("%.6f", report.ProfitFactor)
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal performance report to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write performance report to file: %w", err)
	}

	return nil
}
