package migrations

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListIsOrdered(t *testing.T) {
	migrations, err := List()
	require.NoError(t, err)
	require.Len(t, migrations, 4)
	assert.Equal(t, "001_auth", migrations[0].Version)
	assert.Equal(t, "004_export_jobs", migrations[3].Version)
	assert.Contains(t, migrations[1].SQL, "UNIQUE (window_id, responder_key)")
}

func setupMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestApplySkipsRecordedVersions(t *testing.T) {
	db, mock := setupMock(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("001_auth").AddRow("002_meetings").AddRow("003_locations"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS export_jobs")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations")).WithArgs("004_export_jobs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, err := Apply(context.Background(), db, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"004_export_jobs"}, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyRollsBackFailedMigration(t *testing.T) {
	db, mock := setupMock(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	applied, err := Apply(context.Background(), db, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_auth")
	assert.Empty(t, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}
