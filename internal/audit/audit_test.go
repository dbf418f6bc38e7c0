package audit

import (
	"bytes"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_AppendsAcrossOpens(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")

	l, err := OpenLog(dir, "abc")
	require.NoError(t, err)
	require.NoError(t, l.WriteLine("first"))
	assert.Equal(t, LogPath(dir, "abc"), l.Path())
	require.NoError(t, l.Close())

	l, err = OpenLog(dir, "abc")
	require.NoError(t, err)
	require.NoError(t, l.WriteLine("second\n  detail\n"))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(LogPath(dir, "abc"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "msg=first")
	assert.Contains(t, lines[0], "run_id=abc")
	assert.Contains(t, lines[1], "msg=second")
	assert.Contains(t, lines[2], `msg="  detail"`)
}

func TestLog_CSVMirror(t *testing.T) {
	dir := t.TempDir()

	l, err := OpenLog(dir, "abc")
	require.NoError(t, err)
	assert.Equal(t, CSVPath(dir, "abc"), l.CSVPath())
	require.NoError(t, l.WriteLine("Record 1: Donts has duplicates: a; c"))
	l.Logger().Warn("failed to update field", "record_id", "7", "field", "Donts")
	require.NoError(t, l.Close())

	l, err = OpenLog(dir, "abc")
	require.NoError(t, err)
	require.NoError(t, l.WriteLine("second run"))
	require.NoError(t, l.Close())

	f, err := os.Open(CSVPath(dir, "abc"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.Comma = ';'
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4, "header once, then one row per record")

	assert.Equal(t, []string{"timestamp", "level", "run_id", "message"}, rows[0])
	assert.Equal(t, "INFO", rows[1][1])
	assert.Equal(t, "abc", rows[1][2])
	assert.Equal(t, "Record 1: Donts has duplicates: a; c", rows[1][3])
	assert.Equal(t, "WARN", rows[2][1])
	assert.Equal(t, "failed to update field record_id=7 field=Donts", rows[2][3])
	assert.Equal(t, "second run", rows[3][3])
}

func TestFindings_TruncatesOnOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "findings.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	f, err := OpenFindings(path)
	require.NoError(t, err)
	require.NoError(t, f.WriteLine("one"))
	require.NoError(t, f.WriteLine("two"))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestTee(t *testing.T) {
	var a, b bytes.Buffer
	ha := slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo})
	hb := slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelWarn})

	logger := Tee(ha, hb).With("field", "Donts")
	logger.Info("scanned")
	logger.Warn("failed", "record_id", "7")
	logger.Debug("hidden")

	assert.Contains(t, a.String(), "msg=scanned")
	assert.Contains(t, a.String(), "msg=failed")
	assert.NotContains(t, b.String(), "scanned")
	assert.Contains(t, b.String(), "record_id=7")
	assert.Contains(t, b.String(), "field=Donts")
	assert.NotContains(t, a.String(), "hidden")
}
