// Package fetcher retrieves one trading day of OHLCV bars for a set of
// tickers.
//
// A Fetcher wraps a Source (Yahoo chart API or Alpaca market data) and adds
// batching, no-data filtering and the retry policy of the single-ticker path.
// Batch failures degrade to an empty result; they never abort the caller.
//
// Usage:
//
//	f := fetcher.New(fetcher.NewYahoo(client, 20, logger), fetcher.DefaultConfig(), logger)
//	res := f.Fetch(ctx, []string{"AAPL", "MSFT"}, day)
//	one := f.FetchOne(ctx, "AAPL", day)
package fetcher
