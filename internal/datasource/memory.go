package datasource

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/tidemark-lab/tidemark/internal/types"
	"github.com/tidemark-lab/tidemark/pkg/errors"
)

// InMemoryDataSource serves a series that is already loaded. It validates
// ordering once at construction and never re-checks in the query path.
type InMemoryDataSource struct {
	bars []types.Bar
}

// NewInMemoryDataSource validates ordering and wraps the given series.
func NewInMemoryDataSource(bars []types.Bar) (*InMemoryDataSource, error) {
	if len(bars) == 0 {
		return nil, errors.New(errors.ErrCodeEmptySeries, "empty bar series")
	}

	if err := CheckOrdering(bars); err != nil {
		return nil, err
	}

	return &InMemoryDataSource{bars: bars}, nil
}

// Initialize is a no-op: the series is supplied at construction.
func (s *InMemoryDataSource) Initialize(_ string) error {
	return nil
}

func (s *InMemoryDataSource) GetBars(start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error) {
	return filterWindow(s.bars, start, end), nil
}

func (s *InMemoryDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	return len(filterWindow(s.bars, start, end)), nil
}

func (s *InMemoryDataSource) Close() error {
	return nil
}
