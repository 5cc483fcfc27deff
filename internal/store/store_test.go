package store

import (
	"testing"
	"time"

	"github.com/rickgao/eod-movers/internal/model"
)

func TestChunks(t *testing.T) {
	tests := []struct {
		name  string
		items int
		size  int
		want  []int
	}{
		{"empty", 0, 800, nil},
		{"exact", 1600, 800, []int{800, 800}},
		{"remainder", 1700, 800, []int{800, 800, 100}},
		{"small", 3, 800, []int{3}},
		{"default size", 801, 0, []int{800, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chunks(make([]int, tt.items), tt.size)
			if len(got) != len(tt.want) {
				t.Fatalf("chunks = %d, want %d", len(got), len(tt.want))
			}
			for i, c := range got {
				if len(c) != tt.want[i] {
					t.Errorf("chunk %d = %d, want %d", i, len(c), tt.want[i])
				}
			}
		})
	}
}

func TestMoverWhere(t *testing.T) {
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	where, args := moverWhere("date", MoverFilter{From: from, To: to, MinAbsPct: 15}, dollarPlaceholder, pgDate)
	want := " WHERE date >= $1 AND date <= $2 AND ABS(percent_change) >= $3"
	if where != want {
		t.Errorf("where = %q, want %q", where, want)
	}
	if len(args) != 3 {
		t.Fatalf("args = %d, want 3", len(args))
	}

	where, args = moverWhere("week_end_date", MoverFilter{To: to}, questionPlaceholder, sqliteDate)
	if where != " WHERE week_end_date <= ?" {
		t.Errorf("where = %q", where)
	}
	if args[0] != "2024-06-30" {
		t.Errorf("args[0] = %v, want 2024-06-30", args[0])
	}

	if where, args := moverWhere("date", MoverFilter{}, questionPlaceholder, sqliteDate); where != "" || args != nil {
		t.Errorf("empty filter = %q %v", where, args)
	}
}

func TestBarArgs(t *testing.T) {
	b, err := model.NewDailyBar("aapl", time.Date(2024, 6, 17, 15, 0, 0, 0, time.UTC), 10)
	if err != nil {
		t.Fatal(err)
	}
	args := barArgs(b)
	if len(args) != 10 {
		t.Fatalf("args = %d, want 10", len(args))
	}
	if args[0] != "AAPL" {
		t.Errorf("ticker = %v, want AAPL", args[0])
	}
	if args[1] != "AAPL" {
		t.Errorf("company_name = %v, want fallback AAPL", args[1])
	}
	if d := args[2].(time.Time); d.Hour() != 0 {
		t.Errorf("date not truncated: %v", d)
	}
}

func TestTickerArgs(t *testing.T) {
	args := tickerArgs(model.Ticker{Symbol: " spy ", Active: true})
	if args[0] != "SPY" || args[1] != "SPY" || args[2] != "Unknown" || args[3] != true {
		t.Errorf("tickerArgs = %v", args)
	}
}

func TestBarArgs_CompanyName(t *testing.T) {
	b, _ := model.NewDailyBar("AAPL", time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC), 10)
	b.Name = "Apple Inc."
	if args := barArgs(b); args[1] != "Apple Inc." {
		t.Errorf("company_name = %v, want Apple Inc.", args[1])
	}
}
