// Package audit holds the file sinks of a cleaning run: the append-only run
// log with its CSV mirror, and the findings file.
package audit

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Log is the append-only audit log of one run. Every record goes to a text
// log and to a semicolon separated CSV file next to it.
type Log struct {
	file    *os.File
	csvFile *os.File
	logger  *slog.Logger
	runID   string
}

// LogPath returns the audit log path for runID inside dir.
func LogPath(dir, runID string) string {
	return filepath.Join(dir, "run_"+runID+".log")
}

// CSVPath returns the CSV audit log path for runID inside dir.
func CSVPath(dir, runID string) string {
	return filepath.Join(dir, "run_"+runID+".csv")
}

// OpenLog opens (or creates) the audit log for runID inside dir.
func OpenLog(dir, runID string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	f, err := os.OpenFile(LogPath(dir, runID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	cf, err := os.OpenFile(CSVPath(dir, runID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to open audit csv: %w", err)
	}

	ch := newCSVHandler(cf)
	if info, err := cf.Stat(); err == nil && info.Size() == 0 {
		if err := ch.WriteHeader(); err != nil {
			_ = f.Close()
			_ = cf.Close()
			return nil, fmt.Errorf("failed to write audit csv header: %w", err)
		}
	}

	handler := multiHandler{
		slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}),
		ch,
	}
	return &Log{
		file:    f,
		csvFile: cf,
		logger:  slog.New(handler).With("run_id", runID),
		runID:   runID,
	}, nil
}

// WriteLine records one report line. Multi-line text is split so every
// record stays on one line.
func (l *Log) WriteLine(line string) error {
	for _, part := range strings.Split(line, "\n") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		l.logger.Info(part)
	}
	return nil
}

// Logger returns the structured logger writing to the audit file.
func (l *Log) Logger() *slog.Logger {
	return l.logger
}

// Handler returns the slog handler of the audit file, for fan-out.
func (l *Log) Handler() slog.Handler {
	return l.logger.Handler()
}

// RunID returns the run identifier.
func (l *Log) RunID() string {
	return l.runID
}

// Path returns the file path.
func (l *Log) Path() string {
	return l.file.Name()
}

// CSVPath returns the CSV file path.
func (l *Log) CSVPath() string {
	return l.csvFile.Name()
}

// Close closes both files.
func (l *Log) Close() error {
	return errors.Join(l.file.Close(), l.csvFile.Close())
}

// Findings is the per-run findings file. It is truncated when opened.
type Findings struct {
	file *os.File
	w    *bufio.Writer
}

// OpenFindings truncates or creates the findings file at path.
func OpenFindings(path string) (*Findings, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create findings directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open findings file: %w", err)
	}
	return &Findings{file: f, w: bufio.NewWriter(f)}, nil
}

// WriteLine appends line and a newline.
func (f *Findings) WriteLine(line string) error {
	if _, err := f.w.WriteString(line); err != nil {
		return err
	}
	return f.w.WriteByte('\n')
}

// Path returns the file path.
func (f *Findings) Path() string {
	return f.file.Name()
}

// Close flushes pending lines and closes the file.
func (f *Findings) Close() error {
	flushErr := f.w.Flush()
	closeErr := f.file.Close()
	if flushErr != nil {
		return fmt.Errorf("failed to flush findings: %w", flushErr)
	}
	return closeErr
}

// multiHandler sends each record to every handler that accepts its level.
type multiHandler []slog.Handler

// Tee returns a logger that writes to both handlers.
func Tee(a, b slog.Handler) *slog.Logger {
	return slog.New(multiHandler{a, b})
}

func (m multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithGroup(name)
	}
	return out
}
