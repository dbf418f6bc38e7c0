// Package store provides access to the EPG database being cleaned.
//
// The database is a single file reached through database/sql. SQLite is the
// default backend; DuckDB files are supported through the duckdb dialect.
// The store only reads rows and updates single field values in place, it
// never inserts or deletes records.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
)

// Default driver name.
const DefaultDriver = "sqlite"

// ErrRecordNotFound is returned when an update matches no row.
var ErrRecordNotFound = errors.New("record not found")

// dialect captures the per-backend differences.
type dialect struct {
	name        string
	driverName  string
	dsn         func(path string) string
	maintenance []string
	schema      func(ctx context.Context, db *sql.DB) ([]TableSchema, error)
}

var dialects = map[string]*dialect{}

func registerDialect(d *dialect) {
	dialects[d.name] = d
}

// Drivers returns the names of the supported backends.
func Drivers() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DB is an open EPG database.
type DB struct {
	sql     *sql.DB
	dialect *dialect
	path    string
	logger  *slog.Logger
}

// Open opens an existing database file.
func Open(ctx context.Context, driver, path string, logger *slog.Logger) (*DB, error) {
	if path != ":memory:" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
	}
	return open(ctx, driver, path, logger)
}

// Create opens a database file, creating it if it does not exist.
func Create(ctx context.Context, driver, path string, logger *slog.Logger) (*DB, error) {
	return open(ctx, driver, path, logger)
}

func open(ctx context.Context, driver, path string, logger *slog.Logger) (*DB, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unknown database driver %q (supported: %v)", driver, Drivers())
	}

	db, err := sql.Open(d.driverName, d.dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The whole run uses one connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database %s: %w", path, err)
	}

	s := New(db, driver, logger)
	s.path = path
	s.logger.Debug("opened database", "driver", driver, "path", path)
	return s, nil
}

// New wraps an already opened connection. Unknown drivers fall back to sqlite.
func New(db *sql.DB, driver string, logger *slog.Logger) *DB {
	d, ok := dialects[driver]
	if !ok {
		d = dialects[DefaultDriver]
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DB{sql: db, dialect: d, logger: logger}
}

// SQL returns the underlying connection.
func (d *DB) SQL() *sql.DB {
	return d.sql
}

// Driver returns the backend name.
func (d *DB) Driver() string {
	return d.dialect.name
}

// Path returns the database file path, empty for wrapped connections.
func (d *DB) Path() string {
	return d.path
}

// Close closes the connection.
func (d *DB) Close() error {
	if d.sql == nil {
		return nil
	}
	d.logger.Debug("closing database connection")
	return d.sql.Close()
}

// Maintain runs the backend's space reclaim and statistics refresh.
// It is best effort: failures are logged and never returned.
func (d *DB) Maintain(ctx context.Context) {
	for _, stmt := range d.dialect.maintenance {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			d.logger.Warn("maintenance step failed", "statement", stmt, "error", err)
			continue
		}
		d.logger.Debug("maintenance step done", "statement", stmt)
	}
}

// Schema lists every user table with its columns.
func (d *DB) Schema(ctx context.Context) ([]TableSchema, error) {
	tables, err := d.dialect.schema(ctx, d.sql)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return tables, nil
}
