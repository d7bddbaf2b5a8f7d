// Package writer persists downloaded market data in the file formats the
// backtest data sources read.
package writer

import (
	"github.com/tidemark-lab/tidemark/internal/types"
)

// BarWriter writes downloaded bars to a destination file.
type BarWriter interface {
	// Initialize sets up the writer, creating tables or files as needed.
	Initialize() error
	// Write persists one bar.
	Write(bar types.Bar) error
	// Finalize completes the write and returns the output path.
	Finalize() (string, error)
	// Close releases the writer's resources. Safe after Finalize.
	Close() error
	// OutputPath returns the configured output file path.
	OutputPath() string
}
