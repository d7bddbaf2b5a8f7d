// Package engine defines the backtest engine contract. Implementations live
// in versioned subpackages.
package engine

import (
	"context"

	"github.com/moznion/go-optional"

	"github.com/tidemark-lab/tidemark/internal/datasource"
	"github.com/tidemark-lab/tidemark/internal/types"
)

// OnProcessBarCallback is invoked for each replayed bar. Returning an error
// aborts the run.
type OnProcessBarCallback func(current int, total int) error

// RunResult is the outcome of one completed backtest run.
type RunResult struct {
	// RunID uniquely identifies the run and names its results folder.
	RunID string
	// Report is the computed performance summary.
	Report types.PerformanceReport
	// Trades is the full trade ledger.
	Trades []types.Trade
	// Equity is the per-bar equity curve.
	Equity []types.EquityPoint
	// ResultsFolder is where artifacts were written, empty if not persisted.
	ResultsFolder string
}

// Engine replays a historical series through the signal pipeline and
// simulates executions.
type Engine interface {
	// Initialize configures the engine from YAML config content.
	Initialize(config string) error
	// SetDataSource sets the bar source for the run.
	SetDataSource(source datasource.DataSource) error
	// SetResultsFolder sets the output directory for run artifacts.
	// Without a folder, results stay in memory only.
	SetResultsFolder(folder string) error
	// Run replays the series and returns the run result. The context
	// cancels the replay between bars.
	Run(ctx context.Context, onProcessBar optional.Option[OnProcessBarCallback]) (*RunResult, error)
	// GetConfigSchema returns the JSON schema of the engine configuration.
	GetConfigSchema() (string, error)
}
