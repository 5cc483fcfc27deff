package pipeline

import "fmt"

// State is the phase a run is in.
type State int

const (
	StateIdle State = iota
	StateLoadTickers
	StateFetch
	StateNormalize
	StateUpsert
	StateDailyMovers
	StateWeeklyMovers
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoadTickers:
		return "load_tickers"
	case StateFetch:
		return "fetch"
	case StateNormalize:
		return "normalize"
	case StateUpsert:
		return "upsert"
	case StateDailyMovers:
		return "daily_movers"
	case StateWeeklyMovers:
		return "weekly_movers"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
