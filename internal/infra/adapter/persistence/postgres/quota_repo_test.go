package postgres_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pg "catchup-feed/internal/infra/adapter/persistence/postgres"
)

func TestQuotaRepo_SetMonthlyLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("INSERT INTO api_quota").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := pg.NewQuotaRepo(db)
	err = repo.SetMonthlyLimit(context.Background(), "vertex", 9000)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaRepo_GetUsage_Absent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM api_quota").
		WillReturnError(sql.ErrNoRows)

	repo := pg.NewQuotaRepo(db)
	used, limit, err := repo.GetUsage(context.Background(), "vertex")
	require.NoError(t, err)
	assert.Equal(t, 0, used)
	assert.Equal(t, 0, limit)
}

func TestQuotaRepo_GetUsage_Present(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM api_quota").
		WillReturnRows(sqlmock.NewRows([]string{"used", "quota_limit"}).AddRow(9000, 9000))

	repo := pg.NewQuotaRepo(db)
	used, limit, err := repo.GetUsage(context.Background(), "vertex")
	require.NoError(t, err)
	assert.Equal(t, 9000, used)
	assert.Equal(t, 9000, limit)
}

func TestQuotaRepo_AddUsage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("INSERT INTO api_quota").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := pg.NewQuotaRepo(db)
	err = repo.AddUsage(context.Background(), "vertex", 50)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
