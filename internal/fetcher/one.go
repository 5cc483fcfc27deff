package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rickgao/eod-movers/internal/model"
)

// Outcome classifies a single-ticker fetch.
type Outcome int

const (
	OutcomeOK     Outcome = iota // Bars holds at least one usable row
	OutcomeNoData                // Upstream answered but had nothing usable
	OutcomeFailed                // Every attempt failed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNoData:
		return "no_data"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// OneResult is the result of FetchOne.
type OneResult struct {
	Ticker   string
	Outcome  Outcome
	Bars     []model.RawBar
	Attempts int
	Err      error // Last error when Outcome is OutcomeFailed
}

// FetchOne retrieves bars for a single ticker, retrying failed calls with
// exponential backoff (1s, 2s, 4s with the default config). A not-found
// answer is reported as no data without retrying.
func (f *Fetcher) FetchOne(ctx context.Context, ticker string, date time.Time) OneResult {
	sym := model.NormalizeSymbol(ticker)
	from := model.Day(date)
	to := from.AddDate(0, 0, 1)

	res := OneResult{Ticker: sym}
	backoff := f.cfg.RetryBackoff

	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			f.logger.Debug("retrying ticker",
				"ticker", sym,
				"attempt", attempt,
				"backoff", backoff,
			)
			if err := f.sleep(ctx, backoff); err != nil {
				res.Outcome = OutcomeFailed
				res.Err = err
				return res
			}
			backoff *= 2
		}

		res.Attempts++
		raw, err := f.src.Bars(ctx, []string{sym}, from, to)
		if err == nil {
			usable, _ := filterUsable(raw)
			if len(usable) == 0 {
				res.Outcome = OutcomeNoData
				return res
			}
			res.Outcome = OutcomeOK
			res.Bars = usable
			return res
		}

		if errors.Is(err, ErrNotFound) {
			res.Outcome = OutcomeNoData
			return res
		}
		if ctx.Err() != nil {
			res.Outcome = OutcomeFailed
			res.Err = ctx.Err()
			return res
		}

		res.Err = err
		f.logger.Warn("ticker fetch failed",
			"ticker", sym,
			"attempt", attempt+1,
			"error", err,
		)
	}

	res.Outcome = OutcomeFailed
	return res
}
