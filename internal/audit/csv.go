package audit

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// csvHeader names the columns of the CSV audit log.
var csvHeader = []string{"timestamp", "level", "run_id", "message"}

// csvHandler writes one CSV row per record: timestamp, level, run id and the
// message followed by its remaining attributes as key=value pairs.
type csvHandler struct {
	mu     *sync.Mutex
	w      *csv.Writer
	runID  string
	attrs  []slog.Attr
	prefix string
}

func newCSVHandler(w io.Writer) *csvHandler {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	return &csvHandler{mu: &sync.Mutex{}, w: cw}
}

// WriteHeader writes the column names.
func (h *csvHandler) WriteHeader() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.w.Write(csvHeader); err != nil {
		return err
	}
	h.w.Flush()
	return h.w.Error()
}

func (h *csvHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *csvHandler) Handle(_ context.Context, r slog.Record) error {
	parts := []string{r.Message}
	for _, a := range h.attrs {
		parts = append(parts, formatAttr(a))
	}
	r.Attrs(func(a slog.Attr) bool {
		a.Key = h.prefix + a.Key
		parts = append(parts, formatAttr(a))
		return true
	})

	row := []string{r.Time.Format(time.RFC3339), r.Level.String(), h.runID, strings.Join(parts, " ")}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.w.Write(row); err != nil {
		return err
	}
	h.w.Flush()
	return h.w.Error()
}

func (h *csvHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := *h
	out.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if a.Key == "run_id" && h.prefix == "" {
			out.runID = a.Value.String()
			continue
		}
		a.Key = h.prefix + a.Key
		out.attrs = append(out.attrs, a)
	}
	return &out
}

func (h *csvHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	out := *h
	out.prefix = h.prefix + name + "."
	return &out
}

func formatAttr(a slog.Attr) string {
	return fmt.Sprintf("%s=%v", a.Key, a.Value.Resolve())
}
