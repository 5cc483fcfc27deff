// Package normalize converts raw fetched rows into canonical daily bars.
//
// Normalization is pure: it coerces prices to float64 (an invalid open, high
// or low becomes nil), coerces volume to a non-negative integer, attaches the
// display name and stamps the creation time. Rows without a ticker or a
// finite close are dropped.
package normalize
