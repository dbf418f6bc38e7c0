package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/SkodaRunner/SQLiteOptimierer/internal/cleaner"
	"github.com/SkodaRunner/SQLiteOptimierer/internal/store"
)

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(store.Drivers(), c.Driver) {
		errs = append(errs, fmt.Errorf("unknown driver %q (supported: %s)", c.Driver, strings.Join(store.Drivers(), ", ")))
	}

	if err := c.Table.Spec().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("table: %w", err))
	}

	if utf8.RuneCountInString(c.Separator) > 1 || strings.TrimSpace(c.Separator) != c.Separator {
		errs = append(errs, fmt.Errorf("separator must be a single non-space character, got %q", c.Separator))
	}

	if len(c.Fields) == 0 {
		errs = append(errs, errors.New("at least one field rule is required"))
	}
	seen := map[string]bool{}
	for i, f := range c.Fields {
		if !store.ValidIdent(f.Name) {
			errs = append(errs, fmt.Errorf("fields[%d]: invalid field name %q", i, f.Name))
		}
		if seen[f.Name] {
			errs = append(errs, fmt.Errorf("fields[%d]: duplicate field %q", i, f.Name))
		}
		seen[f.Name] = true
		if !f.Dedupe && f.Category == "" {
			errs = append(errs, fmt.Errorf("fields[%d]: %s has neither dedupe nor category", i, f.Name))
		}
	}

	for _, name := range c.OnlyFields {
		if !seen[name] {
			errs = append(errs, fmt.Errorf("only_fields: %q is not a configured field", name))
		}
	}

	for _, category := range cleaner.Categories(c.ActiveFields()) {
		ref, ok := c.References[category]
		if !ok {
			errs = append(errs, fmt.Errorf("category %q has no reference source", category))
			continue
		}
		if !store.ValidIdent(ref.Table) || !store.ValidIdent(ref.Column) {
			errs = append(errs, fmt.Errorf("references.%s: invalid table or column %q.%q", category, ref.Table, ref.Column))
		}
	}

	if !slices.Contains(store.SchemaFormats(), strings.ToLower(c.SchemaFormat)) {
		errs = append(errs, fmt.Errorf("unknown schema_format %q", c.SchemaFormat))
	}

	if !slices.Contains([]string{"auto", "text", "plain"}, c.OutputFormat) {
		errs = append(errs, fmt.Errorf("unknown output format %q (auto|text|plain)", c.OutputFormat))
	}

	return errors.Join(errs...)
}
