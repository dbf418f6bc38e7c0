// Package refset holds reference sets of forbidden tokens.
//
// A reference set is loaded once per run from one column of a reference
// table (for example GeneralDonts.Template) and answers case-insensitive
// membership queries for the overlap pass.
package refset

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/SkodaRunner/SQLiteOptimierer/internal/listfield"
)

// Set is a case-insensitive set of tokens.
// The zero value is not usable; create one with New. A nil *Set is empty.
type Set struct {
	keys   map[string]struct{}
	values []string
}

// New creates a set holding values.
func New(values ...string) *Set {
	s := &Set{keys: make(map[string]struct{}, len(values))}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add trims v and inserts it. Empty values are ignored.
// Returns true if v was not already present.
func (s *Set) Add(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	key := listfield.Key(v)
	if _, ok := s.keys[key]; ok {
		return false
	}
	s.keys[key] = struct{}{}
	s.values = append(s.values, v)
	return true
}

// Contains reports whether token is in the set, ignoring case.
func (s *Set) Contains(token string) bool {
	if s == nil {
		return false
	}
	_, ok := s.keys[listfield.Key(token)]
	return ok
}

// Len returns the number of distinct tokens.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Values returns the tokens in insertion order, spelled as first added.
func (s *Set) Values() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.values))
	copy(out, s.values)
	return out
}

// ColumnSource yields every row's value of one column.
type ColumnSource interface {
	ColumnValues(ctx context.Context) ([]sql.NullString, error)
}

// Load reads src into a new set. NULL and blank values are skipped.
// A source without rows yields an empty set, not an error.
func Load(ctx context.Context, src ColumnSource) (*Set, error) {
	values, err := src.ColumnValues(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference values: %w", err)
	}

	s := New()
	for _, v := range values {
		if !v.Valid {
			continue
		}
		s.Add(v.String)
	}
	return s, nil
}

// LoadAll loads one set per category. It stops at the first failing source.
func LoadAll(ctx context.Context, sources map[string]ColumnSource) (map[string]*Set, error) {
	categories := make([]string, 0, len(sources))
	for category := range sources {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	sets := make(map[string]*Set, len(sources))
	for _, category := range categories {
		s, err := Load(ctx, sources[category])
		if err != nil {
			return nil, fmt.Errorf("reference set %q: %w", category, err)
		}
		sets[category] = s
	}
	return sets, nil
}
