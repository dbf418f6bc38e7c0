package store

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

// ColumnSchema describes one column.
type ColumnSchema struct {
	Name       string `json:"name" yaml:"name"`
	Type       string `json:"type" yaml:"type"`
	NotNull    bool   `json:"not_null" yaml:"not_null"`
	PrimaryKey bool   `json:"primary_key" yaml:"primary_key"`
	Default    string `json:"default,omitempty" yaml:"default,omitempty"`
}

// TableSchema describes one table.
type TableSchema struct {
	Name    string         `json:"name" yaml:"name"`
	Columns []ColumnSchema `json:"columns" yaml:"columns"`
}

// Schema export formats.
const (
	FormatMarkdown = "md"
	FormatText     = "text"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
)

// SchemaFormats lists the accepted export formats.
func SchemaFormats() []string {
	return []string{FormatMarkdown, FormatText, FormatJSON, FormatYAML}
}

// RenderSchema writes tables to w in the given format.
func RenderSchema(w io.Writer, tables []TableSchema, format string) error {
	switch strings.ToLower(format) {
	case FormatMarkdown, "markdown", "":
		return renderSchemaMarkdown(w, tables)
	case FormatText, "table":
		return renderSchemaText(w, tables)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tables)
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(tables); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown schema format %q (supported: %s)", format, strings.Join(SchemaFormats(), ", "))
	}
}

func renderSchemaMarkdown(w io.Writer, tables []TableSchema) error {
	var b strings.Builder
	b.WriteString("# Database schema\n\n")
	for _, t := range tables {
		fmt.Fprintf(&b, "## Table: %s\n\n", t.Name)
		b.WriteString("| Column | Type |\n")
		b.WriteString("|--------|------|\n")
		for _, c := range t.Columns {
			fmt.Fprintf(&b, "| %s | %s |\n", c.Name, c.Type)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderSchemaText(w io.Writer, tables []TableSchema) error {
	if len(tables) == 0 {
		_, _ = fmt.Fprintln(w, "(0 tables)")
		return nil
	}

	for i, t := range tables {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		_, _ = fmt.Fprintf(w, "Table: %s\n", t.Name)

		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.SetStyle(table.StyleLight)
		tw.AppendHeader(table.Row{"Column", "Type", "Nullable", "Default"})
		for _, c := range t.Columns {
			nullable := "YES"
			if c.NotNull {
				nullable = "NO"
			}
			dflt := c.Default
			if c.PrimaryKey {
				if dflt != "" {
					dflt += " "
				}
				dflt += "(primary key)"
			}
			tw.AppendRow(table.Row{c.Name, c.Type, nullable, dflt})
		}
		tw.Render()
	}
	return nil
}
