// Package model defines shared data types used across the EOD mover pipeline.
//
// All types mirror the database schema in internal/database/migrations.
//
// Conventions:
//   - Prices: float64 dollars, unadjusted closes
//   - Dates: calendar days as time.Time at midnight UTC
//   - Tickers: uppercase symbols (e.g. "AAPL")
package model
