package tickers

import (
	"context"
	"errors"

	"github.com/rickgao/eod-movers/internal/model"
)

// ErrEmptyUniverse is returned when a source yields no tickers.
var ErrEmptyUniverse = errors.New("ticker universe is empty")

// Source loads the ticker universe.
type Source interface {
	Load(ctx context.Context) ([]model.Ticker, error)
}

// Symbols returns the symbols of ts in order.
func Symbols(ts []model.Ticker) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Symbol
	}
	return out
}

// Names maps each symbol to its display name.
func Names(ts []model.Ticker) map[string]string {
	out := make(map[string]string, len(ts))
	for _, t := range ts {
		if t.Name != "" {
			out[t.Symbol] = t.Name
		}
	}
	return out
}

// dedupe normalizes symbols, drops blanks and keeps the first occurrence.
func dedupe(ts []model.Ticker) []model.Ticker {
	seen := make(map[string]bool, len(ts))
	out := ts[:0]
	for _, t := range ts {
		t.Symbol = model.NormalizeSymbol(t.Symbol)
		if t.Symbol == "" || seen[t.Symbol] {
			continue
		}
		seen[t.Symbol] = true
		if t.Name == "" {
			t.Name = t.Symbol
		}
		out = append(out, t)
	}
	return out
}

// Static is a fixed universe, used for ad-hoc runs over a handful of symbols.
type Static []model.Ticker

// FromSymbols builds a Static universe from bare symbols.
func FromSymbols(symbols ...string) Static {
	out := make(Static, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, model.Ticker{Symbol: s, Active: true})
	}
	return out
}

// Load returns the normalized, deduplicated universe.
func (s Static) Load(ctx context.Context) ([]model.Ticker, error) {
	out := dedupe(append([]model.Ticker(nil), s...))
	if len(out) == 0 {
		return nil, ErrEmptyUniverse
	}
	return out, nil
}
