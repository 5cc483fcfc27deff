// Package tickers supplies the universe of tickers for a run.
//
// Two sources exist: a CSV file whose ticker column is found by header name
// (falling back to the first column), and the tickers table read in pages
// ordered by symbol. Both return symbols uppercased and de-duplicated, with
// display names where available.
package tickers
