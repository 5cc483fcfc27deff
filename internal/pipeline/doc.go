// Package pipeline drives one end-of-day load.
//
// A run moves through a fixed sequence of states:
//
//	Idle -> LoadTickers -> {Fetch -> Normalize -> Upsert}* -> DailyMovers -> WeeklyMovers -> Done
//
// Batches run one after another on the calling goroutine. The only
// parallelism is inside the fetch backend. A run that persists no records
// skips mover detection and returns ErrNoRecords. A failed bar upsert aborts
// the run; chunks committed before it stay in place.
//
// In single mode each ticker is fetched on its own with FetchOne, throttled
// by a rate limiter with an extra pause every N tickers.
package pipeline
