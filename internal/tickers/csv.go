package tickers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rickgao/eod-movers/internal/model"
)

// symbolHeaders are the header names recognized as the ticker column, in
// priority order.
var symbolHeaders = []string{"ticker", "Ticker", "symbol", "Symbol", "TICKER", "SYMBOL"}

// nameHeaders are the header names recognized as the display name column.
var nameHeaders = []string{"company_name", "name", "Name", "Company", "company"}

// CSV reads tickers from a delimited file.
type CSV struct {
	Path string
}

var _ Source = (*CSV)(nil)

// NewCSV creates a CSV source.
func NewCSV(path string) *CSV {
	return &CSV{Path: path}
}

// Load implements Source.
func (c *CSV) Load(ctx context.Context) ([]model.Ticker, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("open tickers csv: %w", err)
	}
	defer f.Close()

	ts, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.Path, err)
	}
	return ts, nil
}

// ParseCSV reads a header row and one ticker per following row. The ticker
// column is the first header matching symbolHeaders, else the first column.
// All parsed tickers are active.
func ParseCSV(r io.Reader) ([]model.Ticker, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyUniverse
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	symCol := findColumn(header, symbolHeaders)
	if symCol < 0 {
		symCol = 0
	}
	nameCol := findColumn(header, nameHeaders)

	var ts []model.Ticker
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if symCol >= len(rec) {
			continue
		}
		t := model.Ticker{Symbol: rec[symCol], Active: true}
		if nameCol >= 0 && nameCol < len(rec) {
			t.Name = strings.TrimSpace(rec[nameCol])
		}
		ts = append(ts, t)
	}

	ts = dedupe(ts)
	if len(ts) == 0 {
		return nil, ErrEmptyUniverse
	}
	return ts, nil
}

func findColumn(header, candidates []string) int {
	for _, want := range candidates {
		for i, h := range header {
			if strings.TrimSpace(h) == want {
				return i
			}
		}
	}
	return -1
}
