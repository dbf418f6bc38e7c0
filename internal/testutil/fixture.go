package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/SkodaRunner/SQLiteOptimierer/internal/store"
)

// Template is one Templates row for fixtures. Nil pointers insert NULL.
type Template struct {
	Name       *string
	Template   string
	Donts      *string
	DescDont   *string
	NotChannel *string
}

// GeneralDont is one GeneralDonts row for fixtures.
type GeneralDont struct {
	Template *string
	Channel  *string
}

// Str returns a pointer to s.
func Str(s string) *string {
	return &s
}

// NewEPGDatabase creates a migrated SQLite file in t.TempDir() with the given
// rows and returns its path.
func NewEPGDatabase(t testing.TB, templates []Template, donts []GeneralDont) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "EPG.sqlite")
	ctx := context.Background()

	db, err := store.Create(ctx, store.DefaultDriver, path, nil)
	if err != nil {
		t.Fatalf("failed to create fixture database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate fixture database: %v", err)
	}

	for _, tpl := range templates {
		if _, err := db.SQL().ExecContext(ctx,
			`INSERT INTO Templates (Name, Template, Donts, descDont, NotChannel) VALUES (?, ?, ?, ?, ?)`,
			tpl.Name, tpl.Template, tpl.Donts, tpl.DescDont, tpl.NotChannel,
		); err != nil {
			t.Fatalf("failed to insert template: %v", err)
		}
	}

	for _, d := range donts {
		if _, err := db.SQL().ExecContext(ctx,
			`INSERT INTO GeneralDonts (Template, Channel) VALUES (?, ?)`,
			d.Template, d.Channel,
		); err != nil {
			t.Fatalf("failed to insert general dont: %v", err)
		}
	}

	return path
}
