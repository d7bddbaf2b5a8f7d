package datasource

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/tidemark-lab/tidemark/internal/logger"
	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// DuckDBDataSource loads a CSV or Parquet series through DuckDB and
// materializes the full window in memory. Queries after Initialize hit the
// in-process database, never the original file.
type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewDuckDBDataSource opens an in-memory DuckDB instance. Initialize must be
// called with the data file path before any query.
func NewDuckDBDataSource(log *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: log,
	}, nil
}

// Initialize implements DataSource. The file format is picked by extension:
// .parquet goes through read_parquet, everything else through read_csv_auto.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("initializing duckdb data source", zap.String("path", path))

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS bars;`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	reader := "read_csv_auto"
	if strings.HasSuffix(path, ".parquet") {
		reader = "read_parquet"
	}

	// Squirrel does not support CREATE VIEW, so raw SQL here.
	query := fmt.Sprintf(`CREATE VIEW bars AS SELECT * FROM %s('%s');`, reader, path)

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to create view from %s", path)
	}

	return nil
}

// GetBars implements DataSource. Rows come back ordered by time; ordering is
// still verified so a malformed file with duplicate timestamps fails loudly.
func (d *DuckDBDataSource) GetBars(start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error) {
	query := `SELECT time, symbol, open, high, low, close, volume FROM bars`
	query, params := appendTimeWindow(query, start, end)
	query += " ORDER BY time ASC"

	rows, err := d.db.Query(query, params...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query bars", err)
	}
	defer rows.Close()

	var bars []types.Bar

	for rows.Next() {
		var b types.Bar
		if err := rows.Scan(&b.Time, &b.Symbol, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err)
		}

		b.Time = b.Time.UTC()
		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate bars", err)
	}

	if len(bars) == 0 {
		return nil, errors.New(errors.ErrCodeEmptySeries, "no bars in requested window")
	}

	if err := CheckOrdering(bars); err != nil {
		return nil, err
	}

	return bars, nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	query := `SELECT COUNT(*) FROM bars`
	query, params := appendTimeWindow(query, start, end)

	var count int
	if err := d.db.QueryRow(query, params...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}

func appendTimeWindow(query string, start optional.Option[time.Time], end optional.Option[time.Time]) (string, []interface{}) {
	var conditions []string

	var params []interface{}

	paramCount := 0

	if start.IsSome() {
		paramCount++
		conditions = append(conditions, fmt.Sprintf("time >= $%d", paramCount))
		params = append(params, start.Unwrap())
	}

	if end.IsSome() {
		paramCount++
		conditions = append(conditions, fmt.Sprintf("time <= $%d", paramCount))
		params = append(params, end.Unwrap())
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	return query, params
}
