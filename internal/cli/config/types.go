// Package config provides configuration management for the sqliteoptimierer CLI.
package config

import (
	"unicode/utf8"

	"github.com/SkodaRunner/SQLiteOptimierer/internal/cleaner"
	"github.com/SkodaRunner/SQLiteOptimierer/internal/listfield"
	"github.com/SkodaRunner/SQLiteOptimierer/internal/store"
)

// TableConfig names the cleaned table and its key columns.
type TableConfig struct {
	Name           string `koanf:"name"`
	IDColumn       string `koanf:"id_column"`
	NameColumn     string `koanf:"name_column"`
	FallbackColumn string `koanf:"fallback_column"`
}

// Spec converts the table settings for the store.
func (t TableConfig) Spec() store.TableSpec {
	return store.TableSpec{
		Name:           t.Name,
		IDColumn:       t.IDColumn,
		NameColumn:     t.NameColumn,
		FallbackColumn: t.FallbackColumn,
	}
}

// ReferenceConfig is the column a reference set is loaded from.
type ReferenceConfig struct {
	Table  string `koanf:"table"`
	Column string `koanf:"column"`
}

// Config holds all CLI configuration options.
type Config struct {
	Database     string                     `koanf:"database"`
	Driver       string                     `koanf:"driver"`
	IniFile      string                     `koanf:"ini_file"`
	IniSection   string                     `koanf:"ini_section"`
	Table        TableConfig                `koanf:"table"`
	Separator    string                     `koanf:"separator"`
	Fields       []cleaner.FieldRule        `koanf:"fields"`
	OnlyFields   []string                   `koanf:"only_fields"`
	References   map[string]ReferenceConfig `koanf:"references"`
	FindingsFile string                     `koanf:"findings_file"`
	AuditDir     string                     `koanf:"audit_dir"`
	SchemaFile   string                     `koanf:"schema_file"`
	SchemaFormat string                     `koanf:"schema_format"`
	ExportSchema bool                       `koanf:"export_schema"`
	Maintenance  bool                       `koanf:"maintenance"`
	DryRun       bool                       `koanf:"dry_run"`
	Verbose      bool                       `koanf:"verbose"`
	OutputFormat string                     `koanf:"output"`
	LogLevel     string                     `koanf:"log_level"`
}

// Default configuration values.
const (
	DefaultDatabase     = "EPG.sqlite"
	DefaultIniFile      = "SQLiteOptimierer.ini"
	DefaultIniSection   = "SQLiteOptimierer"
	DefaultIniKey       = "Path"
	DefaultTable        = "Templates"
	DefaultIDColumn     = "TemplateID"
	DefaultNameColumn   = "Name"
	DefaultFallback     = "Template"
	DefaultFindingsFile = "duplicates.txt"
	DefaultAuditDir     = "Log"
	DefaultSchemaFile   = "schema.md"
	DefaultSchemaFormat = store.FormatMarkdown
	DefaultOutput       = "auto"
	DefaultLogLevel     = "warn"
)

// DefaultFields returns the field rules of the EPG Templates table.
func DefaultFields() []cleaner.FieldRule {
	return []cleaner.FieldRule{
		{Name: "Donts", Dedupe: true, Category: "template"},
		{Name: "descDont", Dedupe: true},
		{Name: "NotChannel", Dedupe: true, Category: "channel"},
	}
}

// DefaultReferences returns the reference sources of the EPG database.
func DefaultReferences() map[string]ReferenceConfig {
	return map[string]ReferenceConfig{
		"template": {Table: "GeneralDonts", Column: "Template"},
		"channel":  {Table: "GeneralDonts", Column: "Channel"},
	}
}

// SeparatorRune returns the configured separator, or the default when unset.
func (c *Config) SeparatorRune() rune {
	if c.Separator == "" {
		return listfield.DefaultSeparator
	}
	r, _ := utf8.DecodeRuneInString(c.Separator)
	return r
}

// ActiveFields returns the rules to process, narrowed by OnlyFields.
func (c *Config) ActiveFields() []cleaner.FieldRule {
	if len(c.OnlyFields) == 0 {
		return c.Fields
	}
	want := make(map[string]bool, len(c.OnlyFields))
	for _, f := range c.OnlyFields {
		want[f] = true
	}
	var out []cleaner.FieldRule
	for _, r := range c.Fields {
		if want[r.Name] {
			out = append(out, r)
		}
	}
	return out
}
