package query

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/rickgao/eod-movers/internal/model"
	"github.com/rickgao/eod-movers/internal/movers"
	"github.com/rickgao/eod-movers/internal/store"
)

// Defaults.
const (
	DefaultMinPct       = 15.0
	DefaultLimit        = 20
	DefaultVolatileDays = 30
)

// Store is the subset of the store used for reports.
type Store interface {
	BarsBetween(ctx context.Context, from, to time.Time, tickers ...string) ([]model.DailyBar, error)
	DailyMovers(ctx context.Context, f store.MoverFilter) ([]model.DailyMover, error)
	WeeklyMovers(ctx context.Context, f store.MoverFilter) ([]model.WeeklyMover, error)
	SearchTickers(ctx context.Context, symbolLike, nameLike string) ([]model.Ticker, error)
}

// Range is an inclusive date range; zero bounds are open.
type Range struct {
	From time.Time
	To   time.Time
}

// VolatileTicker counts how often a ticker appeared as a daily mover.
type VolatileTicker struct {
	Ticker string
	Count  int
}

// Service answers report queries.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new Service.
func NewService(st Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// DailyMovers lists daily movers with |pct| >= minPct, newest date first and
// largest gain first within a date.
func (s *Service) DailyMovers(ctx context.Context, minPct float64, r Range) ([]model.DailyMover, error) {
	ms, err := s.store.DailyMovers(ctx, store.MoverFilter{From: r.From, To: r.To, MinAbsPct: minPct})
	if err != nil {
		return nil, fmt.Errorf("daily movers: %w", err)
	}
	slices.SortFunc(ms, func(a, b model.DailyMover) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.PercentChange, a.PercentChange)
	})
	return ms, nil
}

// WeeklyMovers lists weekly movers with |pct| >= minPct whose week ended on
// or after since, newest week first.
func (s *Service) WeeklyMovers(ctx context.Context, minPct float64, since time.Time) ([]model.WeeklyMover, error) {
	ms, err := s.store.WeeklyMovers(ctx, store.MoverFilter{From: since, MinAbsPct: minPct})
	if err != nil {
		return nil, fmt.Errorf("weekly movers: %w", err)
	}
	slices.SortFunc(ms, func(a, b model.WeeklyMover) int {
		if c := b.WeekEndDate.Compare(a.WeekEndDate); c != 0 {
			return c
		}
		return cmp.Compare(b.PercentChange, a.PercentChange)
	})
	return ms, nil
}

// History returns the bars of one ticker in date order.
func (s *Service) History(ctx context.Context, ticker string, r Range) ([]model.DailyBar, error) {
	sym := model.NormalizeSymbol(ticker)
	if sym == "" {
		return nil, model.ErrMissingTicker
	}
	from, to := r.From, r.To
	if from.IsZero() {
		from = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = model.Day(s.now())
	}

	bars, err := s.store.BarsBetween(ctx, from, to, sym)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", sym, err)
	}
	slices.SortFunc(bars, func(a, b model.DailyBar) int {
		return a.Date.Compare(b.Date)
	})
	return bars, nil
}

// TopGainers returns up to limit non-negative daily movers on date, largest
// first. A zero date means yesterday.
func (s *Service) TopGainers(ctx context.Context, date time.Time, limit int) ([]model.DailyMover, error) {
	ms, err := s.onDate(ctx, date)
	if err != nil {
		return nil, err
	}
	ms = slices.DeleteFunc(ms, func(m model.DailyMover) bool { return m.PercentChange < 0 })
	slices.SortFunc(ms, func(a, b model.DailyMover) int {
		return cmp.Compare(b.PercentChange, a.PercentChange)
	})
	return head(ms, limit), nil
}

// TopLosers returns up to limit non-positive daily movers on date, largest
// drop first. A zero date means yesterday.
func (s *Service) TopLosers(ctx context.Context, date time.Time, limit int) ([]model.DailyMover, error) {
	ms, err := s.onDate(ctx, date)
	if err != nil {
		return nil, err
	}
	ms = slices.DeleteFunc(ms, func(m model.DailyMover) bool { return m.PercentChange > 0 })
	slices.SortFunc(ms, func(a, b model.DailyMover) int {
		return cmp.Compare(a.PercentChange, b.PercentChange)
	})
	return head(ms, limit), nil
}

func (s *Service) onDate(ctx context.Context, date time.Time) ([]model.DailyMover, error) {
	if date.IsZero() {
		date = model.Day(s.now()).AddDate(0, 0, -1)
	}
	date = model.Day(date)
	ms, err := s.store.DailyMovers(ctx, store.MoverFilter{From: date, To: date})
	if err != nil {
		return nil, fmt.Errorf("daily movers on %s: %w", date.Format(model.DateLayout), err)
	}
	return ms, nil
}

// MostVolatile ranks tickers by how many daily mover records they have in
// the last days days.
func (s *Service) MostVolatile(ctx context.Context, days, limit int) ([]VolatileTicker, error) {
	if days <= 0 {
		days = DefaultVolatileDays
	}
	since := model.Day(s.now()).AddDate(0, 0, -days)
	ms, err := s.store.DailyMovers(ctx, store.MoverFilter{From: since})
	if err != nil {
		return nil, fmt.Errorf("volatile: %w", err)
	}

	counts := make(map[string]int)
	for _, m := range ms {
		counts[m.Ticker]++
	}
	out := make([]VolatileTicker, 0, len(counts))
	for t, n := range counts {
		out = append(out, VolatileTicker{Ticker: t, Count: n})
	}
	slices.SortFunc(out, func(a, b VolatileTicker) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Ticker, b.Ticker)
	})
	return head(out, limit), nil
}

// Search finds tickers by symbol and company substrings.
func (s *Service) Search(ctx context.Context, symbol, company string) ([]model.Ticker, error) {
	ts, err := s.store.SearchTickers(ctx, symbol, company)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return ts, nil
}

// Movement returns tickers whose close moved at least minPct between start
// and end. Stores that implement store.MovementQuerier answer server-side;
// otherwise the two days are loaded and compared here.
func (s *Service) Movement(ctx context.Context, start, end time.Time, minPct float64) ([]store.Movement, error) {
	start, end = model.Day(start), model.Day(end)
	if end.Before(start) {
		return nil, fmt.Errorf("movement: end %s before start %s",
			end.Format(model.DateLayout), start.Format(model.DateLayout))
	}

	if mq, ok := s.store.(store.MovementQuerier); ok {
		out, err := mq.Movement(ctx, start, end, minPct)
		if err != nil {
			return nil, fmt.Errorf("movement: %w", err)
		}
		return out, nil
	}

	first, err := s.store.BarsBetween(ctx, start, start)
	if err != nil {
		return nil, fmt.Errorf("movement start bars: %w", err)
	}
	last, err := s.store.BarsBetween(ctx, end, end)
	if err != nil {
		return nil, fmt.Errorf("movement end bars: %w", err)
	}

	endClose := make(map[string]float64, len(last))
	for _, b := range last {
		endClose[b.Ticker] = b.Close
	}

	var out []store.Movement
	for _, b := range first {
		ec, ok := endClose[b.Ticker]
		if !ok {
			continue
		}
		pct, reason := movers.PercentChange(b.Close, ec)
		if reason != movers.NotSkipped || math.Abs(pct) < minPct {
			continue
		}
		name := b.Name
		if name == "" {
			name = b.Ticker
		}
		out = append(out, store.Movement{
			Ticker:        b.Ticker,
			Name:          name,
			StartClose:    b.Close,
			EndClose:      ec,
			PercentChange: movers.Round2(pct),
		})
	}
	slices.SortFunc(out, func(a, b store.Movement) int {
		if c := cmp.Compare(b.PercentChange, a.PercentChange); c != 0 {
			return c
		}
		return cmp.Compare(a.Ticker, b.Ticker)
	})
	return out, nil
}

func head[T any](items []T, limit int) []T {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
