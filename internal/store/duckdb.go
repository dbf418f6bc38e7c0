package store

import (
	"context"
	"database/sql"

	// DuckDB driver, registered as "duckdb"
	_ "github.com/marcboeker/go-duckdb"
)

func init() {
	registerDialect(&dialect{
		name:        "duckdb",
		driverName:  "duckdb",
		dsn:         func(path string) string { return path },
		maintenance: []string{"CHECKPOINT", "ANALYZE"},
		schema:      duckdbSchema,
	})
}

func duckdbSchema(ctx context.Context, db *sql.DB) ([]TableSchema, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT table_name, column_name, data_type, is_nullable, COALESCE(column_default, '')
		FROM information_schema.columns
		WHERE table_schema = 'main'
		ORDER BY table_name, ordinal_position
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tables []TableSchema
	for rows.Next() {
		var table, name, colType, nullable, dflt string
		if err := rows.Scan(&table, &name, &colType, &nullable, &dflt); err != nil {
			return nil, err
		}
		if len(tables) == 0 || tables[len(tables)-1].Name != table {
			tables = append(tables, TableSchema{Name: table})
		}
		last := &tables[len(tables)-1]
		last.Columns = append(last.Columns, ColumnSchema{
			Name:    name,
			Type:    colType,
			NotNull: nullable == "NO",
			Default: dflt,
		})
	}
	return tables, rows.Err()
}
