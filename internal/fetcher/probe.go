package fetcher

import (
	"context"
	"time"

	"github.com/rickgao/eod-movers/internal/model"
)

// DefaultBenchmark is the instrument probed to find the last trading day.
const DefaultBenchmark = "SPY"

// probeDays is how far back the benchmark is probed.
const probeDays = 7

// LastTradingDay returns the date of the benchmark's most recent daily bar
// within the last week, or the day before now when the benchmark has no
// data or the probe fails.
func (f *Fetcher) LastTradingDay(ctx context.Context, benchmark string, now time.Time) time.Time {
	if benchmark == "" {
		benchmark = DefaultBenchmark
	}
	today := model.Day(now)
	fallback := today.AddDate(0, 0, -1)

	raw, err := f.src.Bars(ctx, []string{benchmark}, today.AddDate(0, 0, -probeDays), today.AddDate(0, 0, 1))
	if err != nil {
		f.logger.Warn("benchmark probe failed, using fallback date",
			"benchmark", benchmark,
			"date", fallback.Format(model.DateLayout),
			"error", err,
		)
		return fallback
	}

	usable, _ := filterUsable(raw)
	var last time.Time
	for _, r := range usable {
		if d := model.Day(r.Date); d.After(last) {
			last = d
		}
	}
	if last.IsZero() {
		f.logger.Warn("benchmark has no recent bars, using fallback date",
			"benchmark", benchmark,
			"date", fallback.Format(model.DateLayout),
		)
		return fallback
	}

	f.logger.Info("last trading day",
		"benchmark", benchmark,
		"date", last.Format(model.DateLayout),
	)
	return last
}
