package api

import (
	"time"

	"github.com/rickgao/eod-movers/internal/model"
)

// ToRawBars converts the parallel quote arrays into raw rows.
// Timestamps are shifted by the exchange GMT offset before taking the day so
// that a 09:30 New York open maps to its own calendar date.
func (r *ChartResult) ToRawBars(symbol string) []model.RawBar {
	if r == nil || len(r.Timestamp) == 0 || len(r.Indicators.Quote) == 0 {
		return nil
	}

	q := r.Indicators.Quote[0]
	bars := make([]model.RawBar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		bars = append(bars, model.RawBar{
			Ticker: symbol,
			Date:   model.Day(time.Unix(ts+r.Meta.GMTOffset, 0).UTC()),
			Open:   at(q.Open, i),
			High:   at(q.High, i),
			Low:    at(q.Low, i),
			Close:  at(q.Close, i),
			Volume: at(q.Volume, i),
		})
	}
	return bars
}

// at returns vals[i], or nil when the array is short.
func at(vals []any, i int) any {
	if i < len(vals) {
		return vals[i]
	}
	return nil
}
