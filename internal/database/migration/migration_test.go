package migration

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const sentinel = "SELECT to_regclass('public.notes') IS NOT NULL"

func TestEnsureMigrated(t *testing.T) {
	ctx := context.Background()

	t.Run("skips when table exists", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		core, logs := observer.New(zap.InfoLevel)
		mock.ExpectQuery(regexp.QuoteMeta(sentinel)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		require.NoError(t, EnsureMigrated(ctx, db, zap.New(core), "db"))
		assert.Equal(t, 1, logs.FilterField(zap.String("event", "db_migration_skip")).Len())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("runs every step", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		core, logs := observer.New(zap.InfoLevel)
		mock.ExpectQuery(regexp.QuoteMeta(sentinel)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS notes").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_notes_created_at").WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, EnsureMigrated(ctx, db, zap.New(core), "db"))
		assert.Equal(t, len(steps), logs.FilterField(zap.String("event", "db_migration_step")).Len())
		assert.Equal(t, 1, logs.FilterField(zap.String("event", "db_migration_success")).Len())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("step failure stops the run", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		core, logs := observer.New(zap.InfoLevel)
		mock.ExpectQuery(regexp.QuoteMeta(sentinel)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS notes").WillReturnError(errors.New("permission denied"))

		err = EnsureMigrated(ctx, db, zap.New(core), "db")

		assert.ErrorContains(t, err, "migration step create_table_notes failed: permission denied")
		failed := logs.FilterField(zap.String("event", "db_migration_failed")).All()
		require.Len(t, failed, 1)
		assert.Equal(t, zap.ErrorLevel, failed[0].Level)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("sentinel check failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(sentinel)).WillReturnError(errors.New("conn reset"))

		err = EnsureMigrated(ctx, db, zap.NewNop(), "db")

		assert.ErrorContains(t, err, "failed to check sentinel table: conn reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
