package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rickgao/eod-movers/internal/model"
	"github.com/rickgao/eod-movers/internal/normalize"
)

// ErrNotFound is returned by a Source when the upstream does not know a
// symbol. FetchOne does not retry it.
var ErrNotFound = errors.New("symbol not found")

// Source retrieves raw daily bars for symbols in the half-open day range
// [from, to). A returned error means the whole call failed.
type Source interface {
	Name() string
	Bars(ctx context.Context, symbols []string, from, to time.Time) ([]model.RawBar, error)
}

// Config holds fetcher configuration.
type Config struct {
	BatchSize    int           // Tickers per upstream call (default: 150)
	MaxRetries   int           // FetchOne retries after the first attempt (default: 3)
	RetryBackoff time.Duration // First FetchOne backoff, doubled per retry (default: 1s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:    150,
		MaxRetries:   3,
		RetryBackoff: time.Second,
	}
}

// Result is the outcome of a Fetch.
type Result struct {
	Bars          []model.RawBar
	Requested     int      // Tickers asked for
	Found         []string // Tickers with at least one usable row
	Missing       []string // Tickers excluded for lack of data
	FailedBatches int      // Upstream calls that failed and were treated as empty
}

// Fetcher batches requests against a Source.
type Fetcher struct {
	src    Source
	cfg    Config
	logger *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a new Fetcher.
func New(src Source, cfg Config, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Fetcher{
		src:    src,
		cfg:    cfg,
		logger: logger,
		sleep:  sleepCtx,
	}
}

// Source returns the underlying data source.
func (f *Fetcher) Source() Source {
	return f.src
}

// Fetch retrieves bars for date for every ticker, batching upstream calls.
// Tickers with no rows or without any usable close are left out of Bars and
// reported in Missing.
func (f *Fetcher) Fetch(ctx context.Context, tickers []string, date time.Time) Result {
	from := model.Day(date)
	to := from.AddDate(0, 0, 1)

	res := Result{Requested: len(tickers)}
	for start := 0; start < len(tickers); start += f.cfg.BatchSize {
		end := min(start+f.cfg.BatchSize, len(tickers))
		batch := tickers[start:end]

		if ctx.Err() != nil {
			res.Missing = append(res.Missing, tickers[start:]...)
			break
		}

		raw, err := f.src.Bars(ctx, batch, from, to)
		if err != nil {
			f.logger.Warn("batch fetch failed",
				"source", f.src.Name(),
				"tickers", len(batch),
				"date", from.Format(model.DateLayout),
				"error", err,
			)
			res.FailedBatches++
			res.Missing = append(res.Missing, batch...)
			continue
		}

		usable, found := filterUsable(raw)
		res.Bars = append(res.Bars, usable...)
		for _, t := range batch {
			sym := model.NormalizeSymbol(t)
			if found[sym] {
				res.Found = append(res.Found, sym)
			} else {
				res.Missing = append(res.Missing, sym)
			}
		}

		f.logger.Debug("batch fetched",
			"source", f.src.Name(),
			"requested", len(batch),
			"found", len(found),
			"rows", len(usable),
		)
	}

	return res
}

// filterUsable drops rows without a ticker or a usable close and returns the
// set of tickers that kept at least one row.
func filterUsable(raw []model.RawBar) ([]model.RawBar, map[string]bool) {
	found := make(map[string]bool)
	out := make([]model.RawBar, 0, len(raw))
	for _, r := range raw {
		sym := model.NormalizeSymbol(r.Ticker)
		if sym == "" {
			continue
		}
		if _, ok := normalize.Float(r.Close); !ok {
			continue
		}
		r.Ticker = sym
		out = append(out, r)
		found[sym] = true
	}
	return out, found
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
