package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/eod-movers/internal/api"
	"github.com/rickgao/eod-movers/internal/model"
)

// ChartClient is the subset of api.Client used by Yahoo.
type ChartClient interface {
	GetDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]model.RawBar, error)
}

// QuoteClient is the subset of api.Client used to attach reference data.
type QuoteClient interface {
	GetQuotes(ctx context.Context, symbols ...string) (map[string]api.Quote, error)
}

// Yahoo is a Source backed by the Yahoo Finance chart API. The API serves
// one symbol per request, so a batch fans out with bounded concurrency.
type Yahoo struct {
	client      ChartClient
	quotes      QuoteClient
	concurrency int
	logger      *slog.Logger
}

var _ Source = (*Yahoo)(nil)

// NewYahoo creates a Yahoo source. concurrency bounds in-flight requests
// per batch (default: 20).
func NewYahoo(client ChartClient, concurrency int, logger *slog.Logger) *Yahoo {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = 20
	}
	return &Yahoo{
		client:      client,
		concurrency: concurrency,
		logger:      logger,
	}
}

// WithQuotes makes Bars attach company name and market cap from one quote
// request per call. It costs an extra request, so it suits single mode.
func (y *Yahoo) WithQuotes(qc QuoteClient) *Yahoo {
	y.quotes = qc
	return y
}

// Name implements Source.
func (y *Yahoo) Name() string { return "yahoo" }

// Bars implements Source. Per-symbol failures exclude that symbol; the call
// only fails when every symbol failed.
func (y *Yahoo) Bars(ctx context.Context, symbols []string, from, to time.Time) ([]model.RawBar, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	var (
		mu       sync.Mutex
		bars     []model.RawBar
		failed   atomic.Int64
		notFound atomic.Int64
		lastErr  error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(y.concurrency)

	for _, sym := range symbols {
		g.Go(func() error {
			rows, err := y.client.GetDailyBars(gctx, sym, from, to)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if api.IsNotFound(err) {
					notFound.Add(1)
					return nil
				}
				failed.Add(1)
				mu.Lock()
				lastErr = err
				mu.Unlock()
				y.logger.Debug("symbol fetch failed", "ticker", sym, "error", err)
				return nil
			}

			mu.Lock()
			bars = append(bars, rows...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if n := notFound.Load(); n == int64(len(symbols)) {
		return nil, fmt.Errorf("yahoo: %w", ErrNotFound)
	}
	if n := failed.Load(); n > 0 && n+notFound.Load() == int64(len(symbols)) {
		return nil, fmt.Errorf("yahoo: all %d symbols failed: %w", n, lastErr)
	}
	if y.quotes != nil && len(bars) > 0 {
		y.attachQuotes(ctx, bars)
	}
	return bars, nil
}

// attachQuotes fills Name and MarketCap. A failed lookup leaves the bars as
// they are.
func (y *Yahoo) attachQuotes(ctx context.Context, bars []model.RawBar) {
	seen := make(map[string]bool)
	var syms []string
	for _, b := range bars {
		if sym := model.NormalizeSymbol(b.Ticker); !seen[sym] {
			seen[sym] = true
			syms = append(syms, sym)
		}
	}

	quotes, err := y.quotes.GetQuotes(ctx, syms...)
	if err != nil {
		y.logger.Warn("quote lookup failed", "tickers", len(syms), "error", err)
		return
	}
	for i := range bars {
		q, ok := quotes[model.NormalizeSymbol(bars[i].Ticker)]
		if !ok {
			continue
		}
		bars[i].Name = q.DisplayName()
		if q.MarketCap != nil {
			bars[i].MarketCap = *q.MarketCap
		}
	}
}
