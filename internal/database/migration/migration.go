package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_notes",
		SQL: `CREATE TABLE IF NOT EXISTS notes (
  id          UUID        PRIMARY KEY,
  title       TEXT        NOT NULL CHECK (char_length(title) BETWEEN 1 AND 200),
  content     TEXT        NOT NULL DEFAULT '',
  page_number INTEGER     NULL CHECK (page_number >= 1),
  files       JSONB       NOT NULL DEFAULT '[]'::jsonb,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_notes_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_notes_created_at ON notes (created_at DESC, id DESC);`,
	},
}

// EnsureMigrated checks if the 'notes' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger, dbHost string) error {
	start := time.Now()
	log = log.With(zap.String("component", "database"), zap.String("db_host", dbHost))

	log.Info("checking schema",
		zap.String("event", "db_migration_check"),
		zap.String("status", "starting"),
	)

	var exists bool
	query := "SELECT to_regclass('public.notes') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.Error("failed to check sentinel table",
			zap.String("event", "db_migration_failed"),
			zap.String("status", "error"),
			zap.Error(err),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("schema already exists, skipping migration",
			zap.String("event", "db_migration_skip"),
			zap.String("status", "success"),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	}

	log.Info("applying migrations",
		zap.String("event", "db_migration_start"),
		zap.String("status", "in_progress"),
	)

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("migration step failed",
				zap.String("event", "db_migration_failed"),
				zap.String("status", "error"),
				zap.String("migration_step", step.Name),
				zap.Error(err),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Info("migration step applied",
			zap.String("event", "db_migration_step"),
			zap.String("status", "success"),
			zap.String("migration_step", step.Name),
			zap.Int64("step_duration_ms", time.Since(stepStart).Milliseconds()),
		)
	}

	log.Info("migrations applied",
		zap.String("event", "db_migration_success"),
		zap.String("status", "success"),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return nil
}
