package engine

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/tidemark-lab/tidemark/internal/logger"
	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// BacktestState persists a completed run's trade ledger and equity curve in
// an in-process DuckDB so results can be queried and exported. The replay
// hot loop never touches it; trades and equity are flushed after the run.
type BacktestState struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewBacktestState opens the backing in-memory database.
func NewBacktestState(log *logger.Logger) (*BacktestState, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open state database", err)
	}

	return &BacktestState{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the trades and equity tables.
func (b *BacktestState) Initialize() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			symbol TEXT,
			time TIMESTAMP,
			side TEXT,
			requested_signal DOUBLE,
			fill_price DOUBLE,
			quantity DOUBLE,
			commission DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create trades table", err)
	}

	_, err = b.db.Exec(`
		CREATE TABLE IF NOT EXISTS equity (
			time TIMESTAMP PRIMARY KEY,
			cash DOUBLE,
			quantity DOUBLE,
			mark_price DOUBLE,
			total_value DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create equity table", err)
	}

	return nil
}

// Flush stores a run's full ledger and equity curve.
func (b *BacktestState) Flush(trades []types.Trade, equity []types.EquityPoint) error {
	tx, err := b.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to begin transaction", err)
	}

	for _, t := range trades {
		insert := b.sq.
			Insert("trades").
			Columns("id", "symbol", "time", "side", "requested_signal", "fill_price", "quantity", "commission").
			Values(t.ID, t.Symbol, t.Time, string(t.Side), t.RequestedSignal, t.FillPrice, t.Quantity, t.Commission).
			RunWith(tx)

		if _, err := insert.Exec(); err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				b.logger.Error("failed to rollback transaction", zap.Error(rollbackErr))
			}

			return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to insert trade", err)
		}
	}

	for _, e := range equity {
		insert := b.sq.
			Insert("equity").
			Columns("time", "cash", "quantity", "mark_price", "total_value").
			Values(e.Time, e.Cash, e.PositionQuantity, e.MarkPrice, e.TotalValue).
			RunWith(tx)

		if _, err := insert.Exec(); err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				b.logger.Error("failed to rollback transaction", zap.Error(rollbackErr))
			}

			return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to insert equity point", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to commit transaction", err)
	}

	return nil
}

// TradeCountBySide returns the number of stored trades per side.
func (b *BacktestState) TradeCountBySide() (map[types.TradeSide]int, error) {
	rows, err := b.sq.
		Select("side", "COUNT(*)").
		From("trades").
		GroupBy("side").
		RunWith(b.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count trades", err)
	}
	defer rows.Close()

	counts := make(map[types.TradeSide]int)

	for rows.Next() {
		var side string

		var count int

		if err := rows.Scan(&side, &count); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade count", err)
		}

		counts[types.TradeSide(side)] = count
	}

	return counts, rows.Err()
}

// TotalCommission sums commission across all stored trades.
func (b *BacktestState) TotalCommission() (float64, error) {
	var total sql.NullFloat64

	err := b.sq.
		Select("SUM(commission)").
		From("trades").
		RunWith(b.db).
		QueryRow().
		Scan(&total)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to sum commission", err)
	}

	return total.Float64, nil
}

// Write exports the stored tables as CSV files into folder.
func (b *BacktestState) Write(folder string) error {
	tradesPath := filepath.Join(folder, "trades.csv")

	// Squirrel doesn't support COPY, so raw SQL here.
	if _, err := b.db.Exec(fmt.Sprintf(`COPY trades TO '%s' (FORMAT CSV, HEADER)`, tradesPath)); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to export trades", err)
	}

	equityPath := filepath.Join(folder, "equity.csv")
	if _, err := b.db.Exec(fmt.Sprintf(`COPY equity TO '%s' (FORMAT CSV, HEADER)`, equityPath)); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to export equity", err)
	}

	return nil
}

// Cleanup drops the stored tables so the state can be reused for another run.
func (b *BacktestState) Cleanup() error {
	if _, err := b.db.Exec(`DELETE FROM trades; DELETE FROM equity;`); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestWriteFailed, "failed to clean up state", err)
	}

	return nil
}

// Close releases the backing database.
func (b *BacktestState) Close() error {
	return b.db.Close()
}
