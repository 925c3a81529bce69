package entity

import "time"

// FetchStatus tags a single fetch_log row. The zero value is invalid; use
// one of the named constants.
type FetchStatus string

const (
	FetchStatusOK   FetchStatus = "ok"
	FetchStatus304  FetchStatus = "304"
	FetchStatusSkip FetchStatus = "skip"
	FetchStatusNG   FetchStatus = "ng"
	FetchStatusList FetchStatus = "list"
	FetchStatusSeed FetchStatus = "seed"
)

// FetchLogEntry is one append-only row in the fetch_log event stream. Error
// carries structured "key=value, ..." counters by convention (spec'd in the
// run summary contract) and, for every row emitted during a run, a
// "run=<id>; " prefix so the run summary can aggregate via substring match.
type FetchLogEntry struct {
	URL      string
	Status   FetchStatus
	TookMS   int
	Error    *string
	LoggedAt time.Time
}
