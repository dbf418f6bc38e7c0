package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate creates the EPG tables (Templates, GeneralDonts) if missing.
func (d *DB) Migrate(ctx context.Context) error {
	if d.dialect.name != "sqlite" {
		return fmt.Errorf("schema creation is only supported for sqlite, not %s", d.dialect.name)
	}
	return MigrateWithDB(ctx, d.sql)
}

// MigrateWithDB runs the embedded migrations on a raw sqlite connection.
func MigrateWithDB(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// MigrationVersion returns the applied schema version.
func (d *DB) MigrationVersion(ctx context.Context) (int64, error) {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, d.sql)
}
