package scheduler

import (
	"context"
	"database/sql"
)

// WithConn acquires a fresh connection from db on entry and returns it to
// the pool before returning, bounding connection-pool pressure per worker
// task (spec.md §4.4). Each statement run against the conn is its own
// autocommit transaction; no multi-statement transaction is required.
func WithConn(ctx context.Context, db *sql.DB, fn func(ctx context.Context, conn *sql.Conn) error) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	return fn(ctx, conn)
}
