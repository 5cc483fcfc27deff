package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rickgao/eod-movers/internal/model"
	"github.com/rickgao/eod-movers/internal/query"
	"github.com/rickgao/eod-movers/internal/store"
)

func TestReport(t *testing.T) {
	ctx := context.Background()
	db, err := store.OpenSQLite(":memory:", 0, nil)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer db.Close()

	day := time.Date(2024, 6, 18, 0, 0, 0, 0, time.UTC)
	if err := db.UpsertDailyMover(ctx, model.DailyMover{
		Ticker: "AAA", Date: day, PreviousClose: 10, CurrentClose: 12, PercentChange: 20, Volume: 900,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := query.NewService(db, nil)

	t.Run("gainers table", func(t *testing.T) {
		result, err := report(ctx, svc, []string{"gainers", "-date", "2024-06-18"})
		if err != nil {
			t.Fatalf("report() error = %v", err)
		}
		var buf bytes.Buffer
		if err := printTable(&buf, result); err != nil {
			t.Fatalf("printTable() error = %v", err)
		}
		out := buf.String()
		for _, want := range []string{"TICKER", "AAA", "+20.00%", "900"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown report", []string{"bogus"}, "unknown report"},
		{"history needs ticker", []string{"history"}, "-ticker is required"},
		{"movement needs dates", []string{"movement", "-start", "2024-06-17"}, "-start and -end"},
		{"bad date", []string{"gainers", "-date", "18/06/2024"}, "invalid value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := report(ctx, svc, tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("report(%v) error = %v, want containing %q", tt.args, err, tt.want)
			}
		})
	}
}

func TestPrintTable_Unknown(t *testing.T) {
	if err := printTable(&bytes.Buffer{}, 42); err == nil {
		t.Error("expected error for unsupported result type")
	}
}
