package store

import (
	"context"
	"errors"
	"time"

	"github.com/rickgao/eod-movers/internal/model"
)

// DefaultChunkSize is the number of records written per transaction.
const DefaultChunkSize = 800

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// Store is the time-series store consumed by the pipeline, the mover
// detector and the query layer.
type Store interface {
	// UpsertBars writes bars keyed by (ticker, date) and returns the number
	// of records persisted. On error, earlier chunks stay committed.
	UpsertBars(ctx context.Context, bars []model.DailyBar) (int, error)

	// UpsertDailyMover writes one daily mover keyed by (ticker, date).
	UpsertDailyMover(ctx context.Context, m model.DailyMover) error

	// UpsertWeeklyMover writes one weekly mover keyed by (ticker, week_end_date).
	UpsertWeeklyMover(ctx context.Context, m model.WeeklyMover) error

	// UpsertTickers writes the universe keyed by symbol.
	UpsertTickers(ctx context.Context, tickers []model.Ticker) (int, error)

	// BarsBetween returns bars with from <= date <= to, optionally limited to
	// the given tickers. Rows come back in no particular order.
	BarsBetween(ctx context.Context, from, to time.Time, tickers ...string) ([]model.DailyBar, error)

	// ActiveTickers returns one page of active tickers ordered by symbol.
	ActiveTickers(ctx context.Context, offset, limit int) ([]model.Ticker, error)

	// DailyMovers returns daily movers matching f.
	DailyMovers(ctx context.Context, f MoverFilter) ([]model.DailyMover, error)

	// WeeklyMovers returns weekly movers whose week end matches f.
	WeeklyMovers(ctx context.Context, f MoverFilter) ([]model.WeeklyMover, error)

	// SearchTickers returns tickers whose symbol contains symbolLike and
	// whose name contains nameLike, case-insensitively. Empty terms match all.
	SearchTickers(ctx context.Context, symbolLike, nameLike string) ([]model.Ticker, error)

	Close() error
}

// MoverFilter selects movers by date range and minimum absolute change.
// A zero From or To leaves that side open.
type MoverFilter struct {
	From      time.Time
	To        time.Time
	MinAbsPct float64
}

// Movement is a close-to-close change between two arbitrary dates.
type Movement struct {
	Ticker        string
	Name          string
	StartClose    float64
	EndClose      float64
	PercentChange float64
}

// MovementQuerier is implemented by stores that compute movements
// server-side.
type MovementQuerier interface {
	Movement(ctx context.Context, start, end time.Time, minPct float64) ([]Movement, error)
}

// chunks splits items into consecutive slices of at most size elements.
func chunks[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultChunkSize
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		out = append(out, items[start:min(start+size, len(items))])
	}
	return out
}

func upperAll(tickers []string) []string {
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if s := model.NormalizeSymbol(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func sectorOrUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func nameOrSymbol(name, symbol string) string {
	if name == "" {
		return symbol
	}
	return name
}
