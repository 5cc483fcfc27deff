package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/eod-movers/internal/model"
)

// Normalize converts raw rows into DailyBars. names maps symbols to display
// names; a missing entry falls back to the row's own name, then the symbol. Output order follows the
// input but callers must not depend on it.
func Normalize(raw []model.RawBar, names map[string]string, now time.Time) []model.DailyBar {
	bars := make([]model.DailyBar, 0, len(raw))
	for _, r := range raw {
		bar, ok := Row(r, names, now)
		if !ok {
			continue
		}
		bars = append(bars, bar)
	}
	return bars
}

// Row normalizes a single raw row. The boolean is false when the row has no
// ticker or no usable close.
func Row(r model.RawBar, names map[string]string, now time.Time) (model.DailyBar, bool) {
	close, ok := Float(r.Close)
	if !ok {
		return model.DailyBar{}, false
	}
	bar, err := model.NewDailyBar(r.Ticker, r.Date, close)
	if err != nil {
		return model.DailyBar{}, false
	}

	if name := strings.TrimSpace(names[bar.Ticker]); name != "" {
		bar.Name = name
	} else if name := strings.TrimSpace(r.Name); name != "" {
		bar.Name = name
	}
	bar.MarketCap = floatPtr(r.MarketCap)
	bar.Open = floatPtr(r.Open)
	bar.High = floatPtr(r.High)
	bar.Low = floatPtr(r.Low)
	bar.Volume = Volume(r.Volume)
	bar.CreatedAt = now.UTC()
	return bar, true
}

// Float coerces v to a finite float64.
func Float(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint64:
		f = float64(x)
	case *float64:
		if x == nil {
			return 0, false
		}
		f = *x
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if !model.IsFinite(f) {
		return 0, false
	}
	return f, true
}

// Volume coerces v to a non-negative integer. Missing, invalid and negative
// values become 0; fractional values are truncated.
func Volume(v any) int64 {
	f, ok := Float(v)
	if !ok || f < 0 {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(f)
}

func floatPtr(v any) *float64 {
	f, ok := Float(v)
	if !ok {
		return nil
	}
	return model.Float(f)
}
