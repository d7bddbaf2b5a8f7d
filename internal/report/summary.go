package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tidemark-lab/tidemark/internal/types"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Faint(true).
			Width(20)

	gainStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	lossStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// RenderSummary formats a performance report for terminal output.
func RenderSummary(report types.PerformanceReport) string {
	var rows []string

	rows = append(rows,
		row("Run", report.ID),
		row("Symbol", report.Symbol),
		row("Engine", report.EngineVersion),
		"",
		row("Total return", signedPercent(report.TotalReturn)),
		row("Annualized", signedPercent(report.AnnualizedReturn)),
		row("Sharpe ratio", fmt.Sprintf("%.4f", report.SharpeRatio)),
		row("Max drawdown", fmt.Sprintf("%.2f%%", report.MaxDrawdown*100)),
		row("Calmar ratio", fmt.Sprintf("%.4f", report.CalmarRatio)),
		row("VaR 95", fmt.Sprintf("%.4f", report.VaR95)),
		"",
		row("Trades", fmt.Sprintf("%d (%d won / %d lost)", report.TradeCount, report.WinningTrades, report.LosingTrades)),
		row("Win rate", fmt.Sprintf("%.2f%%", report.WinRate*100)),
		row("Profit factor", profitFactor(report.ProfitFactor)),
		row("Commission", fmt.Sprintf("%.2f", report.TotalCommission)),
		"",
		row("Initial capital", fmt.Sprintf("%.2f", report.InitialCapital)),
		row("Final value", fmt.Sprintf("%.2f", report.FinalValue)),
	)

	body := strings.Join(rows, "\n")

	return titleStyle.Render("backtest result") + "\n" + boxStyle.Render(body)
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func signedPercent(v float64) string {
	text := fmt.Sprintf("%+.2f%%", v*100)
	if v >= 0 {
		return gainStyle.Render(text)
	}

	return lossStyle.Render(text)
}

func profitFactor(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}

	return fmt.Sprintf("%.4f", v)
}
