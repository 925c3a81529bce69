package postgres_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catchup-feed/internal/domain/entity"
	pg "catchup-feed/internal/infra/adapter/persistence/postgres"
	"catchup-feed/internal/normalize"
)

func pageRow(p *entity.Page) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"url", "title", "summary", "rate", "cap", "target", "cost_items",
		"deadline", "fiscal_year", "call_no", "scheme_type", "period_from",
		"period_to", "content_hash", "last_fetched",
	}).AddRow(
		p.URL, p.Title, p.Summary, p.Rate, p.Cap, p.Target, p.CostItems,
		p.Deadline, p.FiscalYear, p.CallNo, p.SchemeType, p.PeriodFrom,
		p.PeriodTo, p.ContentHash, p.LastFetched,
	)
}

func TestPageRepo_Upsert_FirstSighting(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT content_hash FROM pages WHERE url = $1")).
		WithArgs("https://allowed.example/a").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO pages").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := pg.NewPageRepo(db)
	changed, err := repo.Upsert(context.Background(), &entity.Page{
		URL: "https://allowed.example/a", Title: "t", Summary: "s",
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPageRepo_Upsert_UnchangedReturnsFalse(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	page := &entity.Page{URL: "https://allowed.example/a", Title: "t", Summary: "s"}
	hash := sameHashAs(page)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT content_hash FROM pages WHERE url = $1")).
		WithArgs(page.URL).
		WillReturnRows(sqlmock.NewRows([]string{"content_hash"}).AddRow(hash))

	repo := pg.NewPageRepo(db)
	changed, err := repo.Upsert(context.Background(), page)
	require.NoError(t, err)
	assert.False(t, changed)
	// No INSERT expected: ExpectationsWereMet fails if the INSERT never
	// fired AND was queued; since we never queued one, a stray exec would
	// surface as an unexpected-call error instead.
	assert.NoError(t, mock.ExpectationsWereMet())
}

// sameHashAs recomputes the hash the repo would compute, so the test can
// simulate "identical record already stored".
func sameHashAs(p *entity.Page) string {
	return normalize.ContentHash(p.HashedFields())
}

func TestPageRepo_Query_NoKeyword(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	now := time.Now()
	mock.ExpectQuery("FROM pages").
		WillReturnRows(pageRow(&entity.Page{URL: "u", Title: "t", LastFetched: now}))

	repo := pg.NewPageRepo(db)
	got, err := repo.Query(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestPageRepo_Query_WithKeyword(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	q := "補助金"
	mock.ExpectQuery("plainto_tsquery").
		WithArgs(q, 5).
		WillReturnRows(pageRow(&entity.Page{URL: "u", Title: "t", LastFetched: time.Now()}))

	repo := pg.NewPageRepo(db)
	got, err := repo.Query(context.Background(), &q, 5)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestPageRepo_Deficient(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("WHERE \\(title = \\$1 OR summary = ''\\)").
		WillReturnRows(pageRow(&entity.Page{URL: "u", Title: entity.UntitledSentinel, LastFetched: time.Now()}))

	repo := pg.NewPageRepo(db)
	got, err := repo.Deficient(context.Background(), 20)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestPageRepo_CountNonSentinel(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM pages").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	repo := pg.NewPageRepo(db)
	n, err := repo.CountNonSentinel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}
