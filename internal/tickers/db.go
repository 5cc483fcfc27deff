package tickers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rickgao/eod-movers/internal/model"
)

// DefaultPageSize is the number of tickers read per page.
const DefaultPageSize = 1000

// Pager reads active tickers ordered by symbol.
type Pager interface {
	ActiveTickers(ctx context.Context, offset, limit int) ([]model.Ticker, error)
}

// DB reads the active universe from the tickers table.
type DB struct {
	pager    Pager
	pageSize int
	logger   *slog.Logger
}

var _ Source = (*DB)(nil)

// NewDB creates a DB source.
func NewDB(pager Pager, pageSize int, logger *slog.Logger) *DB {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &DB{pager: pager, pageSize: pageSize, logger: logger}
}

// Load implements Source. Pages are read until one comes back short.
func (d *DB) Load(ctx context.Context) ([]model.Ticker, error) {
	var all []model.Ticker
	for offset := 0; ; offset += d.pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := d.pager.ActiveTickers(ctx, offset, d.pageSize)
		if err != nil {
			return nil, fmt.Errorf("load tickers at offset %d: %w", offset, err)
		}
		all = append(all, page...)
		if len(page) < d.pageSize {
			break
		}
	}

	all = dedupe(all)
	if len(all) == 0 {
		return nil, ErrEmptyUniverse
	}
	d.logger.Debug("loaded tickers from database", "count", len(all))
	return all, nil
}
