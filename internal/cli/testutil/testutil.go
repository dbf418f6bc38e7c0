// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/SkodaRunner/SQLiteOptimierer/internal/cli/output"
	dbtest "github.com/SkodaRunner/SQLiteOptimierer/internal/testutil"
)

// Project is a temporary working directory with an EPG database.
type Project struct {
	Dir      string
	Database string
	Findings string
	Schema   string
	AuditDir string
}

// SetupTestProject creates a temporary directory holding a fixture database
// with duplicates and general exclusions, and changes into it.
func SetupTestProject(t *testing.T) *Project {
	t.Helper()

	db := dbtest.NewEPGDatabase(t, []dbtest.Template{
		{
			Name:       dbtest.Str("Tatort"),
			Template:   "Krimi",
			Donts:      dbtest.Str("A;B;A;c;C"),
			NotChannel: dbtest.Str("ZDF;QVC"),
		},
		{
			Name:     nil,
			Template: "Sportschau",
			Donts:    dbtest.Str("Werbung;Fussball"),
			DescDont: dbtest.Str("Trailer;trailer"),
		},
		{
			Name:     dbtest.Str("Leer"),
			Template: "Leer",
			Donts:    dbtest.Str(""),
		},
	}, []dbtest.GeneralDont{
		{Template: dbtest.Str("werbung"), Channel: dbtest.Str("qvc")},
		{Template: nil, Channel: nil},
		{Template: dbtest.Str(" "), Channel: dbtest.Str("")},
	})

	dir := filepath.Dir(db)
	t.Chdir(dir)

	return &Project{
		Dir:      dir,
		Database: db,
		Findings: filepath.Join(dir, "duplicates.txt"),
		Schema:   filepath.Join(dir, "schema.md"),
		AuditDir: filepath.Join(dir, "Log"),
	}
}

// WriteFile writes content to name inside the project directory.
func (p *Project) WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(p.Dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// ReadFile returns the content of path.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}
