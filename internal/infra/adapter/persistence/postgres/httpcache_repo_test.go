package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pg "catchup-feed/internal/infra/adapter/persistence/postgres"
)

func TestHTTPCacheRepo_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	etag := `W/"abc"`
	mock.ExpectExec("INSERT INTO http_cache").
		WithArgs("https://allowed.example/l", &etag, sqlmock.AnyArg(), 304).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := pg.NewHTTPCacheRepo(db)
	err = repo.Upsert(context.Background(), "https://allowed.example/l", &etag, nil, 304)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHTTPCacheRepo_Get_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM http_cache").
		WithArgs("https://unknown.example/x").
		WillReturnError(sql.ErrNoRows)

	repo := pg.NewHTTPCacheRepo(db)
	got, err := repo.Get(context.Background(), "https://unknown.example/x")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestHTTPCacheRepo_Get_Found(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	now := time.Now()
	etag := "e1"
	mock.ExpectQuery("FROM http_cache").
		WithArgs("https://allowed.example/l").
		WillReturnRows(sqlmock.NewRows([]string{
			"url", "etag", "last_modified", "last_status", "last_checked_at", "last_changed_at",
		}).AddRow("https://allowed.example/l", &etag, nil, 200, now, now))

	repo := pg.NewHTTPCacheRepo(db)
	got, err := repo.Get(context.Background(), "https://allowed.example/l")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 200, got.LastStatus)
}
