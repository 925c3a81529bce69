package repository

import (
	"context"

	"catchup-feed/internal/domain/entity"
)

// FetchLogRepository appends to and summarizes the fetch_log event stream.
type FetchLogRepository interface {
	// Log appends one row. Callers always pass the run-prefixed error
	// string ("run=<id>; ...") so CountByStatus can aggregate per run.
	Log(ctx context.Context, url string, status entity.FetchStatus, tookMS int, errText *string) error

	// CountByStatus returns, for the current run (matched by substring
	// containment of "run=<runID>; " in the error column), the count of
	// fetch_log rows per status — the input to the run summary line.
	CountByStatus(ctx context.Context, runID string) (map[entity.FetchStatus]int, error)
}
