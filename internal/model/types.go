package model

import (
	"errors"
	"math"
	"strings"
	"time"
)

// DateLayout is the wire and storage format for calendar days.
const DateLayout = "2006-01-02"

// -----------------------------------------------------------------------------
// Reference Types
// -----------------------------------------------------------------------------

// Ticker is one instrument of the universe.
type Ticker struct {
	Symbol string // Primary key, uppercase (e.g. "AAPL")
	Name   string // Display name, falls back to Symbol
	Sector string // Sector, "Unknown" when not provided
	Active bool   // Only active tickers are loaded
}

// -----------------------------------------------------------------------------
// Time-Series Types
// -----------------------------------------------------------------------------

// RawBar is one row of an upstream bar table before normalization.
// Field values are whatever the source produced: float64, json.Number,
// string, integer types or nil.
type RawBar struct {
	Ticker string
	Date   time.Time
	Open   any
	High   any
	Low    any
	Close  any
	Volume any

	// Reference data, set only by sources that look it up.
	Name      string
	MarketCap any
}

// DailyBar is the canonical end-of-day record for (Ticker, Date).
type DailyBar struct {
	Ticker    string    // Unique key part 1
	Name      string    // Company display name
	Date      time.Time // Unique key part 2 (calendar day)
	Open      *float64  // nil when the source value was missing or invalid
	High      *float64  // nil when missing
	Low       *float64  // nil when missing
	Close     float64   // Always finite
	Volume    int64     // Non-negative, 0 when missing
	MarketCap *float64  // Not fetched by the batch path
	CreatedAt time.Time // Stamped by the normalizer
}

// DailyMover is a ticker whose close moved at least the threshold in one session.
type DailyMover struct {
	Ticker        string
	Date          time.Time // Date of the current bar
	PreviousClose float64
	CurrentClose  float64
	PercentChange float64 // Signed, rounded to 2 decimals
	Volume        int64
	CreatedAt     time.Time
}

// WeeklyMover is a ticker whose close moved at least the threshold over ~1 week.
type WeeklyMover struct {
	Ticker         string
	WeekStartDate  time.Time
	WeekEndDate    time.Time // Unique key part 2
	WeekStartClose float64
	WeekEndClose   float64
	PercentChange  float64 // Signed, rounded to 2 decimals
	CreatedAt      time.Time
}

// Validation errors returned by NewDailyBar.
var (
	ErrMissingTicker = errors.New("bar has no ticker")
	ErrInvalidClose  = errors.New("bar close is missing or not finite")
)

// NewDailyBar builds a DailyBar, rejecting rows without a ticker or a finite close.
func NewDailyBar(ticker string, date time.Time, close float64) (DailyBar, error) {
	ticker = NormalizeSymbol(ticker)
	if ticker == "" {
		return DailyBar{}, ErrMissingTicker
	}
	if !IsFinite(close) {
		return DailyBar{}, ErrInvalidClose
	}
	return DailyBar{
		Ticker: ticker,
		Name:   ticker,
		Date:   Day(date),
		Close:  close,
	}, nil
}

// NormalizeSymbol trims and uppercases a ticker symbol.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Day truncates t to its calendar day at midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Float returns a pointer to f.
func Float(f float64) *float64 {
	return &f
}
