package writer

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// DuckDBWriter buffers bars in an in-memory DuckDB table and exports them on
// Finalize. The output format follows the path extension: .csv or .parquet,
// the two formats the backtest data source reads.
type DuckDBWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
}

// NewDuckDBWriter creates a writer that exports to outputPath on Finalize.
func NewDuckDBWriter(outputPath string) *DuckDBWriter {
	return &DuckDBWriter{
		outputPath: outputPath,
	}
}

// Initialize opens the in-memory database, creates the staging table, and
// prepares the insert statement inside one transaction.
func (w *DuckDBWriter) Initialize() error {
	ext := strings.ToLower(filepath.Ext(w.outputPath))
	if ext != ".csv" && ext != ".parquet" {
		return errors.Newf(errors.ErrCodeMarketDataWriteFailed, "unsupported output extension %q", ext)
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to open staging database", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS bars (
			time TIMESTAMP,
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE
		)
	`); err != nil {
		db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create staging table", err)
	}

	tx, err := db.Begin()
	if err != nil {
		db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to begin transaction", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO bars (time, symbol, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to prepare insert", err)
	}

	w.db = db
	w.tx = tx
	w.stmt = stmt

	return nil
}

// Write stages one bar for export.
func (w *DuckDBWriter) Write(bar types.Bar) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeMarketDataWriteFailed, "writer is not initialized")
	}

	if _, err := w.stmt.Exec(
		bar.Time.UTC(),
		bar.Symbol,
		bar.Open,
		bar.High,
		bar.Low,
		bar.Close,
		bar.Volume,
	); err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to stage bar", err)
	}

	return nil
}

// Finalize commits the staged bars and exports them to the output path in
// strict time order.
func (w *DuckDBWriter) Finalize() (string, error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer is not initialized")
	}

	if err := w.tx.Commit(); err != nil {
		w.tx.Rollback()

		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to commit staged bars", err)
	}

	w.tx = nil

	format := "CSV, HEADER"
	if strings.ToLower(filepath.Ext(w.outputPath)) == ".parquet" {
		format = "PARQUET"
	}

	query := fmt.Sprintf(
		`COPY (SELECT * FROM bars ORDER BY time ASC) TO '%s' (FORMAT %s)`,
		w.outputPath, format)

	if _, err := w.db.Exec(query); err != nil {
		return "", errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to export to %s", w.outputPath)
	}

	return w.outputPath, nil
}

// Close releases the statement, any open transaction, and the database.
func (w *DuckDBWriter) Close() error {
	var firstErr error

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil && firstErr == nil {
			firstErr = err
		}

		w.stmt = nil
	}

	if w.tx != nil {
		// Finalize was never reached; drop the staged rows.
		if err := w.tx.Rollback(); err != nil && firstErr == nil {
			firstErr = err
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}

		w.db = nil
	}

	if firstErr != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to close writer", firstErr)
	}

	return nil
}

// OutputPath returns the configured output file path.
func (w *DuckDBWriter) OutputPath() string {
	return w.outputPath
}
