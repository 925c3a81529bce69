package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/repository"
)

// FetchLogRepo is the PostgreSQL-backed repository.FetchLogRepository. The
// event stream is append-only by design: no update or delete path exists.
type FetchLogRepo struct{ db *sql.DB }

// NewFetchLogRepo creates a new PostgreSQL-based FetchLogRepository.
func NewFetchLogRepo(db *sql.DB) repository.FetchLogRepository {
	return &FetchLogRepo{db: db}
}

func (r *FetchLogRepo) Log(ctx context.Context, url string, status entity.FetchStatus, tookMS int, errText *string) error {
	const query = `INSERT INTO fetch_log (url, status, took_ms, error) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, url, string(status), tookMS, errText); err != nil {
		return fmt.Errorf("Log: %w", err)
	}
	return nil
}

// CountByStatus aggregates the current run's rows via substring containment
// of "run=<id>; " in the error column, per the run-summary contract
// (spec.md §4.10).
func (r *FetchLogRepo) CountByStatus(ctx context.Context, runID string) (map[entity.FetchStatus]int, error) {
	prefix := runPrefix(runID)
	rows, err := r.db.QueryContext(ctx, `
SELECT status, count(*)
FROM fetch_log
WHERE error LIKE $1
GROUP BY status`, "%"+prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("CountByStatus: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[entity.FetchStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("CountByStatus: scan: %w", err)
		}
		counts[entity.FetchStatus(status)] = n
	}
	return counts, rows.Err()
}

// runPrefix is the "run=<id>; " tag every row emitted during a run carries
// in its error column, shared by the logger wrapper (internal/runctx) and
// this aggregation query.
func runPrefix(runID string) string {
	var b strings.Builder
	b.WriteString("run=")
	b.WriteString(runID)
	b.WriteString("; ")
	return b.String()
}
