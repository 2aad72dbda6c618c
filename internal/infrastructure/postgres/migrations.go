package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migrate applies pending schema migrations.
func (db *Database) Migrate(ctx context.Context) error {
	return db.withGoose(func(conn *sql.DB) error {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := goose.UpContext(runCtx, conn, migrationsDir); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		return nil
	})
}

// MigrationStatus prints applied and pending migrations through goose's logger.
func (db *Database) MigrationStatus(ctx context.Context) error {
	return db.withGoose(func(conn *sql.DB) error {
		if err := goose.StatusContext(ctx, conn, migrationsDir); err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		return nil
	})
}

// MigrateDown rolls back the latest migration, or down to target when it is positive.
func (db *Database) MigrateDown(ctx context.Context, target int64) error {
	return db.withGoose(func(conn *sql.DB) error {
		if target > 0 {
			if err := goose.DownToContext(ctx, conn, migrationsDir, target); err != nil {
				return fmt.Errorf("rollback to version %d: %w", target, err)
			}
			return nil
		}
		if err := goose.DownContext(ctx, conn, migrationsDir); err != nil {
			return fmt.Errorf("rollback latest migration: %w", err)
		}
		return nil
	})
}

func (db *Database) withGoose(fn func(*sql.DB) error) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}
	return fn(db.sqlHandle())
}
