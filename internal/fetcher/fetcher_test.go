package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rickgao/eod-movers/internal/model"
)

var testDay = time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC)

// fakeSource serves bars from a function and records calls.
type fakeSource struct {
	mu    sync.Mutex
	calls [][]string
	fn    func(symbols []string, from, to time.Time) ([]model.RawBar, error)
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Bars(ctx context.Context, symbols []string, from, to time.Time) ([]model.RawBar, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), symbols...))
	f.mu.Unlock()
	return f.fn(symbols, from, to)
}

func symbols(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("T%03d", i)
	}
	return out
}

func TestFetch_PartialBatch(t *testing.T) {
	src := &fakeSource{fn: func(syms []string, from, to time.Time) ([]model.RawBar, error) {
		if !from.Equal(testDay) || !to.Equal(testDay.AddDate(0, 0, 1)) {
			t.Errorf("range = [%v, %v), want one day from %v", from, to, testDay)
		}
		var bars []model.RawBar
		for i, s := range syms {
			switch {
			case i < 140:
				bars = append(bars, model.RawBar{Ticker: s, Date: from, Close: 10.0})
			case i < 145:
				// Row present but close missing.
				bars = append(bars, model.RawBar{Ticker: s, Date: from, Close: nil})
			}
		}
		return bars, nil
	}}

	f := New(src, DefaultConfig(), nil)
	res := f.Fetch(context.Background(), symbols(150), testDay)

	if len(src.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(src.calls))
	}
	if res.Requested != 150 {
		t.Errorf("Requested = %d, want 150", res.Requested)
	}
	if len(res.Found) != 140 {
		t.Errorf("Found = %d, want 140", len(res.Found))
	}
	if len(res.Missing) != 10 {
		t.Errorf("Missing = %d, want 10", len(res.Missing))
	}
	if len(res.Bars) != 140 {
		t.Errorf("Bars = %d, want 140", len(res.Bars))
	}
	if res.FailedBatches != 0 {
		t.Errorf("FailedBatches = %d, want 0", res.FailedBatches)
	}
}

func TestFetch_Batching(t *testing.T) {
	src := &fakeSource{fn: func(syms []string, from, to time.Time) ([]model.RawBar, error) {
		var bars []model.RawBar
		for _, s := range syms {
			bars = append(bars, model.RawBar{Ticker: s, Date: from, Close: 1.0})
		}
		return bars, nil
	}}

	f := New(src, Config{BatchSize: 4}, nil)
	res := f.Fetch(context.Background(), symbols(10), testDay)

	if len(src.calls) != 3 {
		t.Fatalf("calls = %d, want 3", len(src.calls))
	}
	wantSizes := []int{4, 4, 2}
	for i, c := range src.calls {
		if len(c) != wantSizes[i] {
			t.Errorf("batch %d size = %d, want %d", i, len(c), wantSizes[i])
		}
	}
	if len(res.Found) != 10 {
		t.Errorf("Found = %d, want 10", len(res.Found))
	}
}

func TestFetch_FailedBatchDegrades(t *testing.T) {
	var n int
	src := &fakeSource{fn: func(syms []string, from, to time.Time) ([]model.RawBar, error) {
		n++
		if n == 1 {
			return nil, errors.New("connection reset")
		}
		return []model.RawBar{{Ticker: syms[0], Date: from, Close: 5.0}}, nil
	}}

	f := New(src, Config{BatchSize: 2}, nil)
	res := f.Fetch(context.Background(), symbols(4), testDay)

	if res.FailedBatches != 1 {
		t.Errorf("FailedBatches = %d, want 1", res.FailedBatches)
	}
	if len(res.Bars) != 1 {
		t.Errorf("Bars = %d, want 1", len(res.Bars))
	}
	if len(res.Missing) != 3 {
		t.Errorf("Missing = %d, want 3", len(res.Missing))
	}
}

func TestFetch_CanceledContext(t *testing.T) {
	src := &fakeSource{fn: func(syms []string, from, to time.Time) ([]model.RawBar, error) {
		return nil, nil
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := New(src, Config{BatchSize: 2}, nil).Fetch(ctx, symbols(4), testDay)
	if len(src.calls) != 0 {
		t.Errorf("calls = %d, want 0", len(src.calls))
	}
	if len(res.Missing) != 4 {
		t.Errorf("Missing = %d, want 4", len(res.Missing))
	}
}

func TestFetchOne(t *testing.T) {
	t.Run("retries with exponential backoff", func(t *testing.T) {
		src := &fakeSource{fn: func(syms []string, from, to time.Time) ([]model.RawBar, error) {
			return nil, errors.New("timeout")
		}}
		f := New(src, DefaultConfig(), nil)
		var slept []time.Duration
		f.sleep = func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		}

		res := f.FetchOne(context.Background(), "aapl", testDay)
		if res.Outcome != OutcomeFailed {
			t.Errorf("Outcome = %v, want failed", res.Outcome)
		}
		if res.Attempts != 4 {
			t.Errorf("Attempts = %d, want 4", res.Attempts)
		}
		want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
		if len(slept) != len(want) {
			t.Fatalf("slept = %v, want %v", slept, want)
		}
		for i := range want {
			if slept[i] != want[i] {
				t.Errorf("slept[%d] = %v, want %v", i, slept[i], want[i])
			}
		}
		if res.Err == nil {
			t.Error("Err should be set")
		}
	})

	t.Run("recovers after a failure", func(t *testing.T) {
		var n int
		src := &fakeSource{fn: func(syms []string, from, to time.Time) ([]model.RawBar, error) {
			n++
			if n == 1 {
				return nil, errors.New("503")
			}
			return []model.RawBar{{Ticker: syms[0], Date: from, Close: 3.0}}, nil
		}}
		f := New(src, DefaultConfig(), nil)
		f.sleep = func(context.Context, time.Duration) error { return nil }

		res := f.FetchOne(context.Background(), "MSFT", testDay)
		if res.Outcome != OutcomeOK {
			t.Fatalf("Outcome = %v, want ok", res.Outcome)
		}
		if res.Attempts != 2 {
			t.Errorf("Attempts = %d, want 2", res.Attempts)
		}
		if len(res.Bars) != 1 || res.Bars[0].Ticker != "MSFT" {
			t.Errorf("Bars = %v", res.Bars)
		}
	})

	t.Run("no data is not retried", func(t *testing.T) {
		src := &fakeSource{fn: func(syms []string, from, to time.Time) ([]model.RawBar, error) {
			return []model.RawBar{{Ticker: syms[0], Date: from, Close: nil}}, nil
		}}
		f := New(src, DefaultConfig(), nil)

		res := f.FetchOne(context.Background(), "XYZ", testDay)
		if res.Outcome != OutcomeNoData {
			t.Errorf("Outcome = %v, want no_data", res.Outcome)
		}
		if res.Attempts != 1 {
			t.Errorf("Attempts = %d, want 1", res.Attempts)
		}
	})

	t.Run("not found is not retried", func(t *testing.T) {
		src := &fakeSource{fn: func(syms []string, from, to time.Time) ([]model.RawBar, error) {
			return nil, fmt.Errorf("lookup: %w", ErrNotFound)
		}}
		f := New(src, DefaultConfig(), nil)

		res := f.FetchOne(context.Background(), "GONE", testDay)
		if res.Outcome != OutcomeNoData {
			t.Errorf("Outcome = %v, want no_data", res.Outcome)
		}
		if len(src.calls) != 1 {
			t.Errorf("calls = %d, want 1", len(src.calls))
		}
	})
}

func TestOutcomeString(t *testing.T) {
	tests := map[Outcome]string{
		OutcomeOK:     "ok",
		OutcomeNoData: "no_data",
		OutcomeFailed: "failed",
		Outcome(9):    "outcome(9)",
	}
	for o, want := range tests {
		if got := o.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func TestLastTradingDay(t *testing.T) {
	now := time.Date(2024, 6, 23, 15, 0, 0, 0, time.UTC) // Sunday

	t.Run("uses latest benchmark bar", func(t *testing.T) {
		src := &fakeSource{fn: func(syms []string, from, to time.Time) ([]model.RawBar, error) {
			if syms[0] != "SPY" {
				t.Errorf("symbol = %q, want SPY", syms[0])
			}
			if want := time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC); !from.Equal(want) {
				t.Errorf("from = %v, want %v", from, want)
			}
			return []model.RawBar{
				{Ticker: "SPY", Date: time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC), Close: 1.0},
				{Ticker: "SPY", Date: time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC), Close: 2.0},
				{Ticker: "SPY", Date: time.Date(2024, 6, 18, 0, 0, 0, 0, time.UTC), Close: 3.0},
			}, nil
		}}

		got := New(src, DefaultConfig(), nil).LastTradingDay(context.Background(), "", now)
		if want := time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
			t.Errorf("LastTradingDay() = %v, want %v", got, want)
		}
	})

	t.Run("falls back to yesterday", func(t *testing.T) {
		src := &fakeSource{fn: func(syms []string, from, to time.Time) ([]model.RawBar, error) {
			return nil, errors.New("down")
		}}

		got := New(src, DefaultConfig(), nil).LastTradingDay(context.Background(), "SPY", now)
		if want := time.Date(2024, 6, 22, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
			t.Errorf("LastTradingDay() = %v, want %v", got, want)
		}
	})

	t.Run("falls back when empty", func(t *testing.T) {
		src := &fakeSource{fn: func(syms []string, from, to time.Time) ([]model.RawBar, error) {
			return nil, nil
		}}

		got := New(src, DefaultConfig(), nil).LastTradingDay(context.Background(), "SPY", now)
		if want := time.Date(2024, 6, 22, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
			t.Errorf("LastTradingDay() = %v, want %v", got, want)
		}
	})
}
