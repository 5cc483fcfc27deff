// Package movers detects tickers whose close moved at least a threshold
// percentage over one session (daily) or about one week (weekly).
//
// Both algorithms share one shape: load a bounded window of bars, group by
// ticker, sort each group by date, compare endpoints, filter by threshold and
// upsert. The comparison itself is pure (EvaluateDaily, EvaluateWeekly) and
// reports an explicit skip reason when a ticker cannot produce a mover.
// Detector wires the pure core to a store.
//
// Percent changes are rounded to two decimals, half away from zero. The
// threshold is applied to the unrounded value.
package movers
