// Package cleaner removes duplicate and forbidden entries from list fields.
//
// A run has two passes over the cleaned table. The dedupe pass removes
// case-insensitive duplicates inside every field whose rule has Dedupe set.
// The overlap pass re-reads the table and removes tokens that belong to the
// reference set named by the field's Category. A field is written only when
// something was found and its new serialization differs from the stored
// value.
package cleaner

import (
	"context"
	"errors"

	"github.com/SkodaRunner/SQLiteOptimierer/internal/store"
)

// ErrUnknownCategory is returned when a rule names a category without a
// loaded reference set.
var ErrUnknownCategory = errors.New("unknown reference category")

// FieldRule assigns a list field to the passes.
type FieldRule struct {
	Name     string `koanf:"name" mapstructure:"name"`
	Dedupe   bool   `koanf:"dedupe" mapstructure:"dedupe"`
	Category string `koanf:"category" mapstructure:"category"`
}

// Options control a run.
type Options struct {
	Fields    []FieldRule
	Separator rune // zero means listfield.DefaultSeparator
	DryRun    bool
}

// Outcome is the result of processing one field of one record.
type Outcome int

const (
	// Unchanged means nothing was found; no write, no report.
	Unchanged Outcome = iota
	// Changed means the field was rewritten.
	Changed
	// Detected means findings were reported but the value serializes as stored.
	Detected
	// Failed means the update failed.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Changed:
		return "changed"
	case Detected:
		return "detected"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Summary counts what a run did.
type Summary struct {
	DryRun            bool
	DedupeScanned     int // records read by the dedupe pass
	OverlapScanned    int // records read by the overlap pass
	Changed           int // fields written (or that would be written on a dry run)
	Detected          int
	Failed            int
	DuplicatesRemoved int // token instances dropped as duplicates
	OverlapsRemoved   int // distinct tokens dropped as reference set members
}

// Store is the record access the processor needs. *store.Table implements it.
type Store interface {
	Records(ctx context.Context, fields []string) ([]store.Record, error)
	UpdateField(ctx context.Context, key any, field, value string) error
}

// LineSink receives report lines.
type LineSink interface {
	WriteLine(line string) error
}
