package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qolae/readers-dashboard-api/internal/models"
)

func newNdaVersionMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestNdaVersionRepositoryCurrent(t *testing.T) {
	db, mock, cleanup := newNdaVersionMock(t)
	defer cleanup()
	repo := NewNdaVersionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "version", "title", "template_path", "counter_required", "is_current", "created_at"}).
		AddRow("v1", "1.0", "Confidentiality Agreement", "nda-v1.json", false, true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, version, title, template_path, counter_required, is_current, created_at FROM nda_versions WHERE is_current = TRUE LIMIT 1")).
		WillReturnRows(rows)

	v, err := repo.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.0", v.Version)
	assert.True(t, v.IsCurrent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNdaVersionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newNdaVersionMock(t)
	defer cleanup()
	repo := NewNdaVersionRepository(db)

	mock.ExpectExec("INSERT INTO nda_versions").
		WithArgs(sqlmock.AnyArg(), "2.0", "Confidentiality Agreement", "nda-v2.json", false, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	v := &models.NdaVersion{Version: "2.0", Title: "Confidentiality Agreement", TemplatePath: "nda-v2.json"}
	require.NoError(t, repo.Create(context.Background(), v))
	assert.NotEmpty(t, v.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNdaVersionRepositorySetCurrent(t *testing.T) {
	db, mock, cleanup := newNdaVersionMock(t)
	defer cleanup()
	repo := NewNdaVersionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE nda_versions SET is_current = FALSE WHERE is_current = TRUE")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE nda_versions SET is_current = TRUE WHERE id = $1")).
		WithArgs("v2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetCurrent(context.Background(), "v2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNdaVersionRepositorySetCurrentUnknownID(t *testing.T) {
	db, mock, cleanup := newNdaVersionMock(t)
	defer cleanup()
	repo := NewNdaVersionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE nda_versions SET is_current = FALSE WHERE is_current = TRUE")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE nda_versions SET is_current = TRUE WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.SetCurrent(context.Background(), "missing")
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
