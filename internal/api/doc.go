// Package api provides a REST client for the Yahoo Finance chart and quote
// endpoints.
//
// Endpoints:
//   - https://query1.finance.yahoo.com/v8/finance/chart/{symbol}
//   - https://query1.finance.yahoo.com/v7/finance/quote?symbols=A,B
//
// One chart request returns the daily bars of a single symbol for a
// [period1, period2) range of Unix seconds. Missing values come back as JSON
// null and are passed through untouched for the normalizer to coerce. The
// quote endpoint returns company names and market caps for many symbols.
//
// Errors come back in-band as {"chart":{"error":{...}}} (or quoteResponse /
// finance) with either a 200 or a 4xx status; APIError carries the code and
// description when present.
package api
