package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// pure Go SQLite driver
	_ "modernc.org/sqlite"
)

func init() {
	registerDialect(&dialect{
		name:       "sqlite",
		driverName: "sqlite",
		dsn: func(path string) string {
			if path == ":memory:" || strings.Contains(path, "?") {
				return path
			}
			return path + "?_pragma=busy_timeout(5000)"
		},
		maintenance: []string{"VACUUM", "PRAGMA optimize"},
		schema:      sqliteSchema,
	})
}

func sqliteSchema(ctx context.Context, db *sql.DB) ([]TableSchema, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table'
		AND name NOT LIKE 'sqlite_%'
		AND name NOT LIKE 'goose_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	// Release the connection before issuing the PRAGMA queries.
	_ = rows.Close()

	tables := make([]TableSchema, 0, len(names))
	for _, name := range names {
		columns, err := sqliteColumns(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
		tables = append(tables, TableSchema{Name: name, Columns: columns})
	}
	return tables, nil
}

func sqliteColumns(ctx context.Context, db *sql.DB, table string) ([]ColumnSchema, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []ColumnSchema
	for rows.Next() {
		var cid, notNull, pk int
		var name, colType string
		var dflt sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, ColumnSchema{
			Name:       name,
			Type:       colType,
			NotNull:    notNull == 1,
			PrimaryKey: pk > 0,
			Default:    dflt.String,
		})
	}
	return columns, rows.Err()
}
