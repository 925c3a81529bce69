package db

import "database/sql"

// EnsureSchema is the idempotent bootstrap described by spec.md §4.2: safe
// to call on every run, it creates pages, http_cache, fetch_log, and
// api_quota (plus their indexes) if absent, and applies the historical
// "limit -> quota_limit" rename as a guarded, idempotent migration step —
// the schema-drift contract spec.md §9 calls out.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS pages (
    url          TEXT PRIMARY KEY,
    title        TEXT NOT NULL DEFAULT '(無題)',
    summary      TEXT NOT NULL DEFAULT '',
    rate         TEXT,
    cap          TEXT,
    target       TEXT,
    cost_items   TEXT,
    deadline     TEXT,
    fiscal_year  TEXT,
    call_no      TEXT,
    scheme_type  TEXT,
    period_from  TEXT,
    period_to    TEXT,
    content_hash TEXT NOT NULL DEFAULT '',
    last_fetched TIMESTAMPTZ NOT NULL DEFAULT now(),
    tokens       TSVECTOR GENERATED ALWAYS AS (
        to_tsvector('simple',
            coalesce(title, '') || ' ' || coalesce(summary, '') || ' ' ||
            coalesce(target, '') || ' ' || coalesce(cost_items, ''))
    ) STORED
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS http_cache (
    url             TEXT PRIMARY KEY,
    etag            TEXT,
    last_modified   TEXT,
    last_status     INTEGER NOT NULL DEFAULT 0,
    last_checked_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_changed_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS fetch_log (
    id         BIGSERIAL PRIMARY KEY,
    url        TEXT NOT NULL,
    status     TEXT NOT NULL,
    took_ms    INTEGER NOT NULL DEFAULT 0,
    error      TEXT,
    logged_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS api_quota (
    month       TEXT NOT NULL,
    api         TEXT NOT NULL,
    used        INTEGER NOT NULL DEFAULT 0,
    quota_limit INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (month, api)
)`); err != nil {
		return err
	}

	// Historical rename, applied once: older deployments created this
	// table with a column named "limit", which collides with a SQL
	// keyword in some client libraries. Guarded the same way the teacher
	// guards chk_source_type — ignore if already renamed or never existed.
	_, _ = db.Exec(`
DO $$
BEGIN
    IF EXISTS (
        SELECT 1 FROM information_schema.columns
        WHERE table_name = 'api_quota' AND column_name = 'limit'
    ) THEN
        ALTER TABLE api_quota RENAME COLUMN "limit" TO quota_limit;
    END IF;
END $$;
`)

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_pages_last_fetched ON pages(last_fetched DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_tokens ON pages USING gin(tokens)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_log_logged_at ON fetch_log(logged_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_fetch_log_status ON fetch_log(status)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}
