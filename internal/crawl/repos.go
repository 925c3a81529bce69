package crawl

import (
	"database/sql"

	"catchup-feed/internal/infra/adapter/persistence/postgres"
	"catchup-feed/internal/repository"
)

func newPageRepo(db *sql.DB) repository.PageRepository           { return postgres.NewPageRepo(db) }
func newHTTPCacheRepo(db *sql.DB) repository.HTTPCacheRepository { return postgres.NewHTTPCacheRepo(db) }
func newFetchLogRepo(db *sql.DB) repository.FetchLogRepository  { return postgres.NewFetchLogRepo(db) }
func newQuotaRepo(db *sql.DB) repository.QuotaRepository        { return postgres.NewQuotaRepo(db) }
