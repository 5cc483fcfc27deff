package tickers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rickgao/eod-movers/internal/model"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantSyms  []string
		wantNames map[string]string
	}{
		{
			name:     "ticker header",
			input:    "ticker,company_name\naapl,Apple Inc.\nMSFT,Microsoft\n",
			wantSyms: []string{"AAPL", "MSFT"},
			wantNames: map[string]string{
				"AAPL": "Apple Inc.",
				"MSFT": "Microsoft",
			},
		},
		{
			name:     "symbol header not first",
			input:    "Name,Symbol,Sector\nNvidia,nvda,Tech\nTesla,TSLA,Auto\n",
			wantSyms: []string{"NVDA", "TSLA"},
			wantNames: map[string]string{
				"NVDA": "Nvidia",
				"TSLA": "Tesla",
			},
		},
		{
			name:      "unknown header falls back to first column",
			input:     "code,exchange\nspy,ARCA\nqqq,NASDAQ\n",
			wantSyms:  []string{"SPY", "QQQ"},
			wantNames: map[string]string{"SPY": "SPY", "QQQ": "QQQ"},
		},
		{
			name:      "duplicates and blanks dropped",
			input:     "TICKER\nAAPL\n\n aapl \n,\nMSFT\n",
			wantSyms:  []string{"AAPL", "MSFT"},
			wantNames: map[string]string{"AAPL": "AAPL", "MSFT": "MSFT"},
		},
		{
			name:      "byte order mark",
			input:     "\ufeffticker\nIBM\n",
			wantSyms:  []string{"IBM"},
			wantNames: map[string]string{"IBM": "IBM"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := ParseCSV(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ParseCSV() error = %v", err)
			}
			got := Symbols(ts)
			if strings.Join(got, ",") != strings.Join(tt.wantSyms, ",") {
				t.Errorf("symbols = %v, want %v", got, tt.wantSyms)
			}
			names := Names(ts)
			for sym, want := range tt.wantNames {
				if names[sym] != want {
					t.Errorf("name[%s] = %q, want %q", sym, names[sym], want)
				}
			}
			for _, tk := range ts {
				if !tk.Active {
					t.Errorf("%s should be active", tk.Symbol)
				}
			}
		})
	}
}

func TestParseCSV_Empty(t *testing.T) {
	for _, input := range []string{"", "ticker\n", "ticker\n\n  \n"} {
		if _, err := ParseCSV(strings.NewReader(input)); !errors.Is(err, ErrEmptyUniverse) {
			t.Errorf("ParseCSV(%q) error = %v, want ErrEmptyUniverse", input, err)
		}
	}
}

func TestCSV_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickers.csv")
	if err := os.WriteFile(path, []byte("symbol,name\nAAPL,Apple\n"), 0644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	ts, err := NewCSV(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(ts) != 1 || ts[0].Symbol != "AAPL" || ts[0].Name != "Apple" {
		t.Errorf("Load() = %+v", ts)
	}

	if _, err := NewCSV(filepath.Join(t.TempDir(), "missing.csv")).Load(context.Background()); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

// fakePager serves n sequential tickers.
type fakePager struct {
	n     int
	calls []int
	err   error
}

func (f *fakePager) ActiveTickers(ctx context.Context, offset, limit int) ([]model.Ticker, error) {
	f.calls = append(f.calls, offset)
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Ticker
	for i := offset; i < f.n && i < offset+limit; i++ {
		out = append(out, model.Ticker{Symbol: symbolFor(i), Active: true})
	}
	return out, nil
}

func symbolFor(i int) string {
	return string([]byte{'A' + byte(i/676%26), 'A' + byte(i/26%26), 'A' + byte(i%26)})
}

func TestDB_Load(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		wantCalls int
	}{
		{"partial page", 2500, 3},
		{"exact pages", 2000, 3},
		{"single page", 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pager := &fakePager{n: tt.n}
			ts, err := NewDB(pager, 0, nil).Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(ts) != tt.n {
				t.Errorf("tickers = %d, want %d", len(ts), tt.n)
			}
			if len(pager.calls) != tt.wantCalls {
				t.Errorf("pages = %d, want %d", len(pager.calls), tt.wantCalls)
			}
			if pager.calls[len(pager.calls)-1] != (tt.wantCalls-1)*DefaultPageSize {
				t.Errorf("last offset = %d", pager.calls[len(pager.calls)-1])
			}
		})
	}
}

func TestDB_LoadErrors(t *testing.T) {
	if _, err := NewDB(&fakePager{n: 0}, 10, nil).Load(context.Background()); !errors.Is(err, ErrEmptyUniverse) {
		t.Errorf("empty table error = %v, want ErrEmptyUniverse", err)
	}

	boom := errors.New("relation does not exist")
	if _, err := NewDB(&fakePager{err: boom}, 10, nil).Load(context.Background()); !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped %v", err, boom)
	}
}

func TestStatic_Load(t *testing.T) {
	got, err := FromSymbols(" aapl", "MSFT", "AAPL", "").Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if syms := Symbols(got); len(syms) != 2 || syms[0] != "AAPL" || syms[1] != "MSFT" {
		t.Errorf("Symbols = %v, want [AAPL MSFT]", syms)
	}
	if got[0].Name != "AAPL" {
		t.Errorf("Name = %q, want fallback to symbol", got[0].Name)
	}

	if _, err := FromSymbols(" ").Load(context.Background()); !errors.Is(err, ErrEmptyUniverse) {
		t.Errorf("Load() error = %v, want ErrEmptyUniverse", err)
	}
}
