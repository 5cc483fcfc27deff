package movers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rickgao/eod-movers/internal/model"
)

// Store is the subset of the time-series store used by Detector.
type Store interface {
	BarsBetween(ctx context.Context, from, to time.Time, tickers ...string) ([]model.DailyBar, error)
	UpsertDailyMover(ctx context.Context, m model.DailyMover) error
	UpsertWeeklyMover(ctx context.Context, m model.WeeklyMover) error
}

// Config holds detector configuration.
type Config struct {
	Threshold         float64 // Minimum absolute percent change (default: 15.0)
	DailyLookbackDays int     // Daily window is [target-N, target] (default: 4)
	WeeklyWindowDays  int     // Weekly window is [target-N, target] (default: 10)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:         15.0,
		DailyLookbackDays: 4,
		WeeklyWindowDays:  10,
	}
}

// DailyReport is the result of one daily detection pass.
type DailyReport struct {
	Summary
	Movers []model.DailyMover // Movers that were persisted
	Failed int                // Movers dropped after an upsert error
}

// WeeklyReport is the result of one weekly detection pass.
type WeeklyReport struct {
	Summary
	Movers []model.WeeklyMover
	Failed int
}

// Detector computes movers from stored bars and persists them.
type Detector struct {
	store  Store
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewDetector creates a new Detector. Zero config fields take defaults.
func NewDetector(store Store, cfg Config, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.DailyLookbackDays <= 0 {
		cfg.DailyLookbackDays = def.DailyLookbackDays
	}
	if cfg.WeeklyWindowDays <= 0 {
		cfg.WeeklyWindowDays = def.WeeklyWindowDays
	}
	return &Detector{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Daily detects daily movers ending on target. A failed range query is
// returned as an error; a failed mover upsert is logged and that mover is
// dropped.
func (d *Detector) Daily(ctx context.Context, target time.Time) (DailyReport, error) {
	to := model.Day(target)
	from := to.AddDate(0, 0, -d.cfg.DailyLookbackDays)

	bars, err := d.store.BarsBetween(ctx, from, to)
	if err != nil {
		return DailyReport{}, fmt.Errorf("load daily window: %w", err)
	}
	if len(bars) == 0 {
		d.logger.Warn("no data for daily mover calculation",
			"from", from.Format(model.DateLayout),
			"to", to.Format(model.DateLayout),
		)
		return DailyReport{}, nil
	}

	found, sum := DetectDaily(bars, d.cfg.Threshold, d.now())
	report := DailyReport{Summary: sum}
	for _, m := range found {
		if err := d.store.UpsertDailyMover(ctx, m); err != nil {
			d.logger.Error("failed to upsert daily mover", "ticker", m.Ticker, "error", err)
			report.Failed++
			continue
		}
		report.Movers = append(report.Movers, m)
	}

	d.logger.Info("daily movers computed",
		"tickers", sum.Tickers,
		"movers", len(report.Movers),
		"failed", report.Failed,
		"threshold", d.cfg.Threshold,
		"skipped", skippedAttrs(sum.Skipped),
	)
	return report, nil
}

// Weekly detects weekly movers whose week ends on or before target.
func (d *Detector) Weekly(ctx context.Context, target time.Time) (WeeklyReport, error) {
	to := model.Day(target)
	from := to.AddDate(0, 0, -d.cfg.WeeklyWindowDays)

	bars, err := d.store.BarsBetween(ctx, from, to)
	if err != nil {
		return WeeklyReport{}, fmt.Errorf("load weekly window: %w", err)
	}
	if len(bars) == 0 {
		d.logger.Warn("no data for weekly mover calculation",
			"from", from.Format(model.DateLayout),
			"to", to.Format(model.DateLayout),
		)
		return WeeklyReport{}, nil
	}

	found, sum := DetectWeekly(bars, d.cfg.Threshold, d.now())
	report := WeeklyReport{Summary: sum}
	for _, m := range found {
		if err := d.store.UpsertWeeklyMover(ctx, m); err != nil {
			d.logger.Error("failed to upsert weekly mover", "ticker", m.Ticker, "error", err)
			report.Failed++
			continue
		}
		report.Movers = append(report.Movers, m)
	}

	d.logger.Info("weekly movers computed",
		"tickers", sum.Tickers,
		"movers", len(report.Movers),
		"failed", report.Failed,
		"threshold", d.cfg.Threshold,
		"skipped", skippedAttrs(sum.Skipped),
	)
	return report, nil
}

func skippedAttrs(m map[SkipReason]int) slog.Value {
	attrs := make([]slog.Attr, 0, len(m))
	for r := SkipTooFewBars; r <= SkipBelowThreshold; r++ {
		if n := m[r]; n > 0 {
			attrs = append(attrs, slog.Int(r.String(), n))
		}
	}
	return slog.GroupValue(attrs...)
}
