package movers

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/eod-movers/internal/model"
)

// Weekly eligibility bounds.
const (
	MinWeeklyBars    = 5
	MinWeekSpanDays  = 5
	MaxWeekSpanDays  = 9
	minDailyBarCount = 2
)

// SkipReason explains why a ticker produced no mover.
type SkipReason int

const (
	NotSkipped SkipReason = iota
	SkipTooFewBars
	SkipZeroBaseClose
	SkipInvalidClose
	SkipSpanOutOfRange
	SkipBelowThreshold
)

func (r SkipReason) String() string {
	switch r {
	case NotSkipped:
		return "none"
	case SkipTooFewBars:
		return "too_few_bars"
	case SkipZeroBaseClose:
		return "zero_base_close"
	case SkipInvalidClose:
		return "invalid_close"
	case SkipSpanOutOfRange:
		return "span_out_of_range"
	case SkipBelowThreshold:
		return "below_threshold"
	default:
		return fmt.Sprintf("skip(%d)", int(r))
	}
}

// GroupByTicker builds a map from ticker to its bars sorted by date
// ascending.
func GroupByTicker(bars []model.DailyBar) map[string][]model.DailyBar {
	groups := make(map[string][]model.DailyBar)
	for _, b := range bars {
		groups[b.Ticker] = append(groups[b.Ticker], b)
	}
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool {
			return g[i].Date.Before(g[j].Date)
		})
	}
	return groups
}

// PercentChange returns (curr-base)/base*100, or a skip reason when base is
// zero or either value is not finite.
func PercentChange(base, curr float64) (float64, SkipReason) {
	if !model.IsFinite(base) || !model.IsFinite(curr) {
		return 0, SkipInvalidClose
	}
	if base == 0 {
		return 0, SkipZeroBaseClose
	}
	return (curr - base) / base * 100, NotSkipped
}

// Round2 rounds to two decimals, half away from zero.
func Round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

// DailyResult is the outcome of EvaluateDaily.
type DailyResult struct {
	Ticker string
	Mover  *model.DailyMover
	Skip   SkipReason
}

// EvaluateDaily compares the last two bars of a ticker's date-sorted window.
func EvaluateDaily(ticker string, bars []model.DailyBar, threshold float64, now time.Time) DailyResult {
	res := DailyResult{Ticker: ticker}
	if len(bars) < minDailyBarCount {
		res.Skip = SkipTooFewBars
		return res
	}

	prev, curr := bars[len(bars)-2], bars[len(bars)-1]
	pct, skip := PercentChange(prev.Close, curr.Close)
	if skip != NotSkipped {
		res.Skip = skip
		return res
	}
	if math.Abs(pct) < threshold {
		res.Skip = SkipBelowThreshold
		return res
	}

	res.Mover = &model.DailyMover{
		Ticker:        ticker,
		Date:          model.Day(curr.Date),
		PreviousClose: prev.Close,
		CurrentClose:  curr.Close,
		PercentChange: Round2(pct),
		Volume:        curr.Volume,
		CreatedAt:     now.UTC(),
	}
	return res
}

// WeeklyResult is the outcome of EvaluateWeekly.
type WeeklyResult struct {
	Ticker string
	Mover  *model.WeeklyMover
	Skip   SkipReason
}

// EvaluateWeekly compares the first and last bars of a ticker's date-sorted
// window. The window needs at least MinWeeklyBars bars spanning between
// MinWeekSpanDays and MaxWeekSpanDays calendar days.
func EvaluateWeekly(ticker string, bars []model.DailyBar, threshold float64, now time.Time) WeeklyResult {
	res := WeeklyResult{Ticker: ticker}
	if len(bars) < MinWeeklyBars {
		res.Skip = SkipTooFewBars
		return res
	}

	start, end := bars[0], bars[len(bars)-1]
	span := DaysBetween(start.Date, end.Date)
	if span < MinWeekSpanDays || span > MaxWeekSpanDays {
		res.Skip = SkipSpanOutOfRange
		return res
	}

	pct, skip := PercentChange(start.Close, end.Close)
	if skip != NotSkipped {
		res.Skip = skip
		return res
	}
	if math.Abs(pct) < threshold {
		res.Skip = SkipBelowThreshold
		return res
	}

	res.Mover = &model.WeeklyMover{
		Ticker:         ticker,
		WeekStartDate:  model.Day(start.Date),
		WeekEndDate:    model.Day(end.Date),
		WeekStartClose: start.Close,
		WeekEndClose:   end.Close,
		PercentChange:  Round2(pct),
		CreatedAt:      now.UTC(),
	}
	return res
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(model.Day(b).Sub(model.Day(a)).Hours() / 24)
}

// Summary counts per-ticker outcomes of a detection pass.
type Summary struct {
	Tickers int
	Movers  int
	Skipped map[SkipReason]int
}

func (s *Summary) skip(r SkipReason) {
	if s.Skipped == nil {
		s.Skipped = make(map[SkipReason]int)
	}
	s.Skipped[r]++
}

// DetectDaily runs EvaluateDaily over every ticker in bars. Movers are
// returned sorted by ticker.
func DetectDaily(bars []model.DailyBar, threshold float64, now time.Time) ([]model.DailyMover, Summary) {
	groups := GroupByTicker(bars)
	sum := Summary{Tickers: len(groups)}

	var out []model.DailyMover
	for _, ticker := range sortedKeys(groups) {
		res := EvaluateDaily(ticker, groups[ticker], threshold, now)
		if res.Mover == nil {
			sum.skip(res.Skip)
			continue
		}
		out = append(out, *res.Mover)
	}
	sum.Movers = len(out)
	return out, sum
}

// DetectWeekly runs EvaluateWeekly over every ticker in bars. Movers are
// returned sorted by ticker.
func DetectWeekly(bars []model.DailyBar, threshold float64, now time.Time) ([]model.WeeklyMover, Summary) {
	groups := GroupByTicker(bars)
	sum := Summary{Tickers: len(groups)}

	var out []model.WeeklyMover
	for _, ticker := range sortedKeys(groups) {
		res := EvaluateWeekly(ticker, groups[ticker], threshold, now)
		if res.Mover == nil {
			sum.skip(res.Skip)
			continue
		}
		out = append(out, *res.Mover)
	}
	sum.Movers = len(out)
	return out, sum
}

func sortedKeys(groups map[string][]model.DailyBar) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
