package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdent reports whether name is safe to splice into SQL as an identifier.
func ValidIdent(name string) bool {
	return identPattern.MatchString(name)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func checkIdents(names ...string) error {
	for _, name := range names {
		if !ValidIdent(name) {
			return fmt.Errorf("invalid identifier %q", name)
		}
	}
	return nil
}

// TableSpec names the table being cleaned and its key columns.
type TableSpec struct {
	Name           string
	IDColumn       string
	NameColumn     string // preferred display name, may be empty
	FallbackColumn string // used when NameColumn is NULL or empty
}

// Validate checks every configured identifier.
func (s TableSpec) Validate() error {
	if err := checkIdents(s.Name, s.IDColumn); err != nil {
		return err
	}
	for _, col := range []string{s.NameColumn, s.FallbackColumn} {
		if col != "" && !ValidIdent(col) {
			return fmt.Errorf("invalid identifier %q", col)
		}
	}
	return nil
}

// displayExpr builds the display name expression: NameColumn when set and
// non-empty, otherwise FallbackColumn, otherwise the id.
func (s TableSpec) displayExpr() string {
	fallback := quoteIdent(s.IDColumn)
	if s.FallbackColumn != "" {
		fallback = quoteIdent(s.FallbackColumn)
	}
	if s.NameColumn == "" {
		return fallback
	}
	name := quoteIdent(s.NameColumn)
	return fmt.Sprintf("CASE WHEN %s IS NOT NULL AND %s <> '' THEN %s ELSE %s END", name, name, name, fallback)
}

// Record is one row of the cleaned table.
type Record struct {
	Row         int    // 1-based position in the result set
	Key         any    // raw id value, used for updates
	ID          string // id rendered as text
	DisplayName string
	Fields      map[string]string // raw field values, NULL reads as ""
	Err         error             // set when the row could not be read
}

// Table gives record access to one table.
type Table struct {
	db   *DB
	spec TableSpec
}

// Table returns a handle for spec.
func (d *DB) Table(spec TableSpec) *Table {
	return &Table{db: d, spec: spec}
}

// Spec returns the table specification.
func (t *Table) Spec() TableSpec {
	return t.spec
}

// Records reads every row with the given list fields.
//
// All rows are read before returning so the single connection is free for
// updates. A row that fails to scan is returned with Err set and the scan
// continues.
func (t *Table) Records(ctx context.Context, fields []string) ([]Record, error) {
	if err := t.spec.Validate(); err != nil {
		return nil, err
	}
	if err := checkIdents(fields...); err != nil {
		return nil, err
	}

	cols := make([]string, 0, len(fields)+2)
	cols = append(cols, quoteIdent(t.spec.IDColumn), t.spec.displayExpr())
	for _, f := range fields {
		cols = append(cols, quoteIdent(f))
	}
	//nolint:gosec // identifiers are validated above
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(cols, ", "), quoteIdent(t.spec.Name), quoteIdent(t.spec.IDColumn))

	rows, err := t.db.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.spec.Name, err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	row := 0
	for rows.Next() {
		row++
		var key any
		var name sql.NullString
		values := make([]sql.NullString, len(fields))

		dest := make([]any, 0, len(fields)+2)
		dest = append(dest, &key, &name)
		for i := range values {
			dest = append(dest, &values[i])
		}

		if err := rows.Scan(dest...); err != nil {
			records = append(records, Record{Row: row, Err: fmt.Errorf("failed to scan row %d: %w", row, err)})
			continue
		}

		rec := Record{
			Row:         row,
			Key:         key,
			ID:          formatKey(key),
			DisplayName: name.String,
			Fields:      make(map[string]string, len(fields)),
		}
		for i, f := range fields {
			rec.Fields[f] = values[i].String
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", t.spec.Name, err)
	}
	return records, nil
}

// UpdateField sets one field of the row identified by key.
func (t *Table) UpdateField(ctx context.Context, key any, field, value string) error {
	if err := t.spec.Validate(); err != nil {
		return err
	}
	if err := checkIdents(field); err != nil {
		return err
	}

	//nolint:gosec // identifiers are validated above
	query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?",
		quoteIdent(t.spec.Name), quoteIdent(field), quoteIdent(t.spec.IDColumn))

	result, err := t.db.sql.ExecContext(ctx, query, value, key)
	if err != nil {
		return fmt.Errorf("failed to update %s.%s: %w", t.spec.Name, field, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s.%s: %w", t.spec.Name, field, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s = %s", ErrRecordNotFound, t.spec.IDColumn, formatKey(key))
	}
	return nil
}

func formatKey(key any) string {
	switch v := key.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(v, 10)
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Column is one column of a reference table.
type Column struct {
	db     *DB
	table  string
	column string
}

// Column returns a handle for table.column.
func (d *DB) Column(table, column string) *Column {
	return &Column{db: d, table: table, column: column}
}

// ColumnValues returns every row's value of the column.
func (c *Column) ColumnValues(ctx context.Context) ([]sql.NullString, error) {
	if err := checkIdents(c.table, c.column); err != nil {
		return nil, err
	}

	//nolint:gosec // identifiers are validated above
	query := fmt.Sprintf("SELECT %s FROM %s", quoteIdent(c.column), quoteIdent(c.table))
	rows, err := c.db.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s.%s: %w", c.table, c.column, err)
	}
	defer func() { _ = rows.Close() }()

	var values []sql.NullString
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s.%s: %w", c.table, c.column, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
