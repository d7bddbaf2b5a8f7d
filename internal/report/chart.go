// Package report renders run artifacts that are not part of the numeric
// results: equity/drawdown charts and terminal summaries.
package report

import (
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// WriteEquityChart renders the equity curve and its drawdown series into a
// standalone HTML page at path.
func WriteEquityChart(equity []types.EquityPoint, symbol, path string) error {
	if len(equity) == 0 {
		return errors.New(errors.ErrCodeEmptySeries, "no equity points to chart")
	}

	xAxis := make([]string, len(equity))
	equityData := make([]opts.LineData, len(equity))
	drawdownData := make([]opts.LineData, len(equity))

	peak := equity[0].TotalValue

	for i, e := range equity {
		if e.TotalValue > peak {
			peak = e.TotalValue
		}

		drawdown := 0.0
		if peak > 0 {
			drawdown = (peak - e.TotalValue) / peak * 100
		}

		xAxis[i] = e.Time.Format("2006-01-02 15:04")
		equityData[i] = opts.LineData{Value: e.TotalValue}
		drawdownData[i] = opts.LineData{Value: -drawdown}
	}

	equityLine := charts.NewLine()
	equityLine.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Equity Curve",
			Subtitle: symbol,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	equityLine.SetXAxis(xAxis)
	equityLine.AddSeries("Total Value", equityData,
		charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))

	drawdownLine := charts.NewLine()
	drawdownLine.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Drawdown (%)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	drawdownLine.SetXAxis(xAxis)
	drawdownLine.AddSeries("Drawdown", drawdownData,
		charts.WithLineStyleOpts(opts.LineStyle{Width: 2}),
		charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.3)}))

	page := components.NewPage()
	page.AddCharts(equityLine, drawdownLine)

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to create chart file", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to render chart", err)
	}

	return nil
}
