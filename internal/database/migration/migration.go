package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed sql/*.sql
var migrations embed.FS

const migrationsDir = "sql"

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Up applies every pending embedded migration. Progress is reported through
// log using the database component events.
func Up(ctx context.Context, db *sql.DB, log logrus.FieldLogger, dbHost string) error {
	start := time.Now()
	entry := log.WithFields(logrus.Fields{
		"component": "database",
		"db_host":   dbHost,
	})

	goose.SetBaseFS(migrations)
	goose.SetLogger(&gooseLogger{entry: entry})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	entry.WithField("event", "db_migration_start").Info("applying migrations")

	if err := gooseUpContext(ctx, db, migrationsDir); err != nil {
		entry.WithFields(logrus.Fields{
			"event":       "db_migration_failed",
			"duration_ms": time.Since(start).Milliseconds(),
		}).WithError(err).Error("migration failed")
		return fmt.Errorf("apply migrations: %w", err)
	}

	entry.WithFields(logrus.Fields{
		"event":       "db_migration_success",
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("migrations applied")
	return nil
}

// gooseLogger routes goose output through logrus. Fatalf is downgraded to an
// error entry so a failed migration returns instead of exiting the process.
type gooseLogger struct {
	entry *logrus.Entry
}

func (l *gooseLogger) Printf(format string, v ...any) {
	l.entry.WithField("event", "db_migration_step").Infof(format, v...)
}

func (l *gooseLogger) Fatalf(format string, v ...any) {
	l.entry.WithField("event", "db_migration_failed").Errorf(format, v...)
}
