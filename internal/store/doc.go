// Package store persists bars, movers and tickers.
//
// Two backends implement Store:
//   - Postgres (pgx): the production store, schema managed by goose
//   - SQLite (modernc.org/sqlite): a local single-file store, also used by tests
//
// Upserts are idempotent on the natural key of each table: (ticker, date)
// for bars and daily movers, (ticker, week_end_date) for weekly movers and
// ticker for the universe. Multi-record upserts are split into chunks; each
// chunk is one transaction that either commits or returns one error. The
// store never retries.
package store
