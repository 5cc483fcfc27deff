// Package query provides read-only reports over the time-series store:
// mover listings, top gainers and losers, ticker history, search and
// close-to-close movement between two arbitrary dates.
package query
