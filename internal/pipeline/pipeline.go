package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/rickgao/eod-movers/internal/fetcher"
	"github.com/rickgao/eod-movers/internal/model"
	"github.com/rickgao/eod-movers/internal/movers"
	"github.com/rickgao/eod-movers/internal/normalize"
	"github.com/rickgao/eod-movers/internal/tickers"
)

// ErrNoRecords is returned when a run persisted no bars.
var ErrNoRecords = errors.New("no records loaded")

// Modes.
const (
	ModeBatch  = "batch"
	ModeSingle = "single"
)

// BarStore persists normalized bars.
type BarStore interface {
	UpsertBars(ctx context.Context, bars []model.DailyBar) (int, error)
}

// Detector computes and persists movers for a target date.
type Detector interface {
	Daily(ctx context.Context, target time.Time) (movers.DailyReport, error)
	Weekly(ctx context.Context, target time.Time) (movers.WeeklyReport, error)
}

// Publisher announces detected movers.
type Publisher interface {
	PublishDaily(ctx context.Context, ms []model.DailyMover) error
	PublishWeekly(ctx context.Context, ms []model.WeeklyMover) error
}

// Config holds pipeline configuration.
type Config struct {
	Mode         string        // "batch" (default) or "single"
	BatchSize    int           // Tickers per batch (default: 150)
	RequestDelay time.Duration // Single mode, minimum spacing between tickers (<= 0: unthrottled)
	PauseEvery   int           // Single mode, extra pause after this many tickers (default: 100)
	Pause        time.Duration // Single mode, extra pause length (default: 5s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Mode:         ModeBatch,
		BatchSize:    150,
		RequestDelay: 1500 * time.Millisecond,
		PauseEvery:   100,
		Pause:        5 * time.Second,
	}
}

// Stats summarizes a run.
type Stats struct {
	RunID        string
	Target       time.Time
	Tickers      int // Universe size
	Attempted    int // Tickers asked for
	Succeeded    int // Tickers with at least one usable row
	Failed       int // Tickers without data or whose fetch failed
	Records      int // Bars persisted
	DailyMovers  int
	WeeklyMovers int
	Duration     time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPublisher publishes movers after each detection step.
func WithPublisher(p Publisher) Option {
	return func(pl *Pipeline) {
		pl.publisher = p
	}
}

// WithClock overrides the clock used for created_at stamps.
func WithClock(now func() time.Time) Option {
	return func(pl *Pipeline) {
		pl.now = now
	}
}

// Pipeline runs end-of-day loads.
type Pipeline struct {
	tickers   tickers.Source
	fetcher   *fetcher.Fetcher
	store     BarStore
	detector  Detector
	publisher Publisher
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error

	mu    sync.RWMutex
	state State
}

// New creates a new Pipeline. Zero config fields take defaults.
func New(src tickers.Source, f *fetcher.Fetcher, st BarStore, det Detector, cfg Config, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Mode == "" {
		cfg.Mode = def.Mode
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.PauseEvery < 0 {
		cfg.PauseEvery = 0
	}

	p := &Pipeline{
		tickers:  src,
		fetcher:  f,
		store:    st,
		detector: det,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current phase.
func (p *Pipeline) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Run loads bars for target and computes movers. The returned Stats are
// valid even when err is non-nil.
func (p *Pipeline) Run(ctx context.Context, target time.Time) (Stats, error) {
	start := p.now()
	stats := Stats{
		RunID:  uuid.NewString(),
		Target: model.Day(target),
	}
	log := p.logger.With("run_id", stats.RunID)

	stats, err := p.run(ctx, stats, log)
	stats.Duration = p.now().Sub(start)
	if err != nil {
		p.setState(StateFailed)
		return stats, err
	}

	p.setState(StateDone)
	log.Info("run complete",
		"date", stats.Target.Format(model.DateLayout),
		"attempted", stats.Attempted,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"records", stats.Records,
		"daily_movers", stats.DailyMovers,
		"weekly_movers", stats.WeeklyMovers,
		"duration", stats.Duration,
	)
	return stats, nil
}

func (p *Pipeline) run(ctx context.Context, stats Stats, log *slog.Logger) (Stats, error) {
	p.setState(StateLoadTickers)
	universe, err := p.tickers.Load(ctx)
	if err != nil {
		return stats, fmt.Errorf("load tickers: %w", err)
	}
	if len(universe) == 0 {
		return stats, tickers.ErrEmptyUniverse
	}
	stats.Tickers = len(universe)

	log.Info("starting load",
		"date", stats.Target.Format(model.DateLayout),
		"tickers", stats.Tickers,
		"mode", p.cfg.Mode,
		"source", p.fetcher.Source().Name(),
	)

	symbols := tickers.Symbols(universe)
	names := tickers.Names(universe)

	if p.cfg.Mode == ModeSingle {
		err = p.runSingle(ctx, symbols, names, &stats, log)
	} else {
		err = p.runBatches(ctx, symbols, names, &stats, log)
	}
	if err != nil {
		return stats, err
	}

	log.Info("load finished",
		"attempted", stats.Attempted,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"records", stats.Records,
	)

	if stats.Records == 0 {
		log.Error("no records were loaded, skipping movers")
		return stats, ErrNoRecords
	}

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	p.setState(StateDailyMovers)
	daily, err := p.detector.Daily(ctx, stats.Target)
	if err != nil {
		log.Error("daily mover calculation failed", "error", err)
	} else {
		stats.DailyMovers = len(daily.Movers)
		p.publishDaily(ctx, daily.Movers, log)
	}

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	p.setState(StateWeeklyMovers)
	weekly, err := p.detector.Weekly(ctx, stats.Target)
	if err != nil {
		log.Error("weekly mover calculation failed", "error", err)
	} else {
		stats.WeeklyMovers = len(weekly.Movers)
		p.publishWeekly(ctx, weekly.Movers, log)
	}

	return stats, nil
}

func (p *Pipeline) runBatches(ctx context.Context, symbols []string, names map[string]string, stats *Stats, log *slog.Logger) error {
	total := (len(symbols) + p.cfg.BatchSize - 1) / p.cfg.BatchSize

	for n, start := 1, 0; start < len(symbols); n, start = n+1, start+p.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := symbols[start:min(start+p.cfg.BatchSize, len(symbols))]

		p.setState(StateFetch)
		res := p.fetcher.Fetch(ctx, batch, stats.Target)
		stats.Attempted += len(batch)
		stats.Succeeded += len(res.Found)
		stats.Failed += len(batch) - len(res.Found)

		p.setState(StateNormalize)
		bars := normalize.Normalize(res.Bars, names, p.now())

		written, err := p.upsert(ctx, bars)
		stats.Records += written
		if err != nil {
			return fmt.Errorf("upsert batch %d/%d: %w", n, total, err)
		}

		log.Info("batch complete",
			"batch", n,
			"batches", total,
			"requested", len(batch),
			"found", len(res.Found),
			"records", written,
			"attempted", stats.Attempted,
			"succeeded", stats.Succeeded,
			"failed", stats.Failed,
		)
	}
	return nil
}

func (p *Pipeline) runSingle(ctx context.Context, symbols []string, names map[string]string, stats *Stats, log *slog.Logger) error {
	limit := rate.Inf
	if p.cfg.RequestDelay > 0 {
		limit = rate.Every(p.cfg.RequestDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	for i, sym := range symbols {
		if i > 0 && p.cfg.PauseEvery > 0 && p.cfg.Pause > 0 && i%p.cfg.PauseEvery == 0 {
			log.Info("pausing",
				"processed", i,
				"pause", p.cfg.Pause,
				"succeeded", stats.Succeeded,
				"failed", stats.Failed,
			)
			if err := p.sleep(ctx, p.cfg.Pause); err != nil {
				return err
			}
		}
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		p.setState(StateFetch)
		res := p.fetcher.FetchOne(ctx, sym, stats.Target)
		stats.Attempted++

		switch res.Outcome {
		case fetcher.OutcomeOK:
		case fetcher.OutcomeNoData:
			log.Debug("no data", "ticker", res.Ticker)
			stats.Failed++
			continue
		default:
			log.Warn("ticker failed", "ticker", res.Ticker, "attempts", res.Attempts, "error", res.Err)
			stats.Failed++
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}

		p.setState(StateNormalize)
		bars := normalize.Normalize(res.Bars, names, p.now())
		written, err := p.upsert(ctx, bars)
		stats.Records += written
		if err != nil {
			return fmt.Errorf("upsert %s: %w", res.Ticker, err)
		}
		if written > 0 {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
	}
	return nil
}

func (p *Pipeline) upsert(ctx context.Context, bars []model.DailyBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	p.setState(StateUpsert)
	return p.store.UpsertBars(ctx, bars)
}

func (p *Pipeline) publishDaily(ctx context.Context, ms []model.DailyMover, log *slog.Logger) {
	if p.publisher == nil || len(ms) == 0 {
		return
	}
	if err := p.publisher.PublishDaily(ctx, ms); err != nil {
		log.Warn("failed to publish daily movers", "count", len(ms), "error", err)
	}
}

func (p *Pipeline) publishWeekly(ctx context.Context, ms []model.WeeklyMover, log *slog.Logger) {
	if p.publisher == nil || len(ms) == 0 {
		return
	}
	if err := p.publisher.PublishWeekly(ctx, ms); err != nil {
		log.Warn("failed to publish weekly movers", "count", len(ms), "error", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
