package cleaner

import (
	"fmt"
	"log/slog"
	"strings"
)

// FormatDuplicates describes the duplicate keys found in one field.
func FormatDuplicates(name, field string, keys []string) string {
	return fmt.Sprintf("Record %s: %s has duplicates: %s", name, field, strings.Join(keys, ", "))
}

// FormatOverlaps describes the reference set members found in one field.
func FormatOverlaps(name, field string, removed []string) string {
	return fmt.Sprintf("Record %s: %s overlaps reference set: %s", name, field, strings.Join(removed, ", "))
}

// FormatCleaned describes a rewritten field.
func FormatCleaned(name, id, field, before, after string, removed []string) string {
	return formatChange("cleaned", name, id, field, before, after, removed)
}

// FormatWouldClean describes a field a dry run would rewrite.
func FormatWouldClean(name, id, field, before, after string, removed []string) string {
	return formatChange("would clean", name, id, field, before, after, removed)
}

func formatChange(verb, name, id, field, before, after string, removed []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Record %s (%s) %s %s\n", id, name, verb, field)
	fmt.Fprintf(&b, "  before:  %s\n", before)
	fmt.Fprintf(&b, "  after:   %s\n", after)
	fmt.Fprintf(&b, "  removed: %s", strings.Join(removed, ", "))
	return b.String()
}

// FormatSetLoaded describes a loaded reference set.
func FormatSetLoaded(category string, n int) string {
	return fmt.Sprintf("Reference set %s loaded: %d values", category, n)
}

// Reporter sends every line to all sinks.
// A failing sink is logged and does not stop the others.
type Reporter struct {
	sinks  []LineSink
	logger *slog.Logger
}

// NewReporter creates a reporter over sinks. Nil sinks are skipped.
func NewReporter(logger *slog.Logger, sinks ...LineSink) *Reporter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Reporter{logger: logger}
	for _, s := range sinks {
		if s != nil {
			r.sinks = append(r.sinks, s)
		}
	}
	return r
}

// Report writes line to every sink.
func (r *Reporter) Report(line string) {
	if r == nil {
		return
	}
	for _, s := range r.sinks {
		if err := s.WriteLine(line); err != nil {
			r.logger.Warn("failed to write report line", "sink", fmt.Sprintf("%T", s), "error", err)
		}
	}
}
