package cleaner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SkodaRunner/SQLiteOptimierer/internal/listfield"
	"github.com/SkodaRunner/SQLiteOptimierer/internal/refset"
	"github.com/SkodaRunner/SQLiteOptimierer/internal/store"
)

// Processor runs the dedupe and overlap passes over one table.
type Processor struct {
	store    Store
	reporter *Reporter
	logger   *slog.Logger
	opts     Options

	// pending holds dry run results so the overlap pass sees them.
	pending map[string]string
}

// NewProcessor creates a processor.
func NewProcessor(s Store, reporter *Reporter, logger *slog.Logger, opts Options) *Processor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Separator == 0 {
		opts.Separator = listfield.DefaultSeparator
	}
	return &Processor{store: s, reporter: reporter, logger: logger, opts: opts, pending: map[string]string{}}
}

// Categories returns the distinct categories the rules refer to, in rule order.
func (p *Processor) Categories() []string {
	return Categories(p.opts.Fields)
}

// Categories returns the distinct categories named by rules, in rule order.
func Categories(rules []FieldRule) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range rules {
		if r.Category == "" || seen[r.Category] {
			continue
		}
		seen[r.Category] = true
		out = append(out, r.Category)
	}
	return out
}

// Run executes the dedupe pass, then the overlap pass.
//
// Errors reading or writing a single record are logged and counted in
// Summary.Failed. Only a failure to query the table aborts the run.
func (p *Processor) Run(ctx context.Context, sets map[string]*refset.Set) (*Summary, error) {
	for _, r := range p.opts.Fields {
		if r.Category == "" {
			continue
		}
		if _, ok := sets[r.Category]; !ok {
			return nil, fmt.Errorf("%w: field %s uses %q", ErrUnknownCategory, r.Name, r.Category)
		}
	}

	sum := &Summary{DryRun: p.opts.DryRun}

	var dedupeFields []string
	var overlapRules []FieldRule
	for _, r := range p.opts.Fields {
		if r.Dedupe {
			dedupeFields = append(dedupeFields, r.Name)
		}
		if r.Category != "" {
			overlapRules = append(overlapRules, r)
		}
	}

	if len(dedupeFields) > 0 {
		if err := p.dedupePass(ctx, dedupeFields, sum); err != nil {
			return sum, err
		}
	}
	if len(overlapRules) > 0 {
		if err := p.overlapPass(ctx, overlapRules, sets, sum); err != nil {
			return sum, err
		}
	}

	p.logger.Info("cleaning finished",
		"changed", sum.Changed,
		"detected", sum.Detected,
		"failed", sum.Failed,
		"dry_run", sum.DryRun,
	)
	return sum, nil
}

func (p *Processor) dedupePass(ctx context.Context, fields []string, sum *Summary) error {
	records, err := p.store.Records(ctx, fields)
	if err != nil {
		return fmt.Errorf("dedupe pass: %w", err)
	}
	p.logger.Debug("dedupe pass", "fields", fields, "records", len(records))

	for _, rec := range records {
		sum.DedupeScanned++
		if rec.Err != nil {
			p.recordFailed(rec, sum)
			continue
		}
		for _, field := range fields {
			p.dedupeField(ctx, rec, field, sum)
		}
	}
	return nil
}

func (p *Processor) dedupeField(ctx context.Context, rec store.Record, field string, sum *Summary) Outcome {
	raw := p.value(rec, field)
	tokens := listfield.Decode(raw, p.opts.Separator)
	kept, dups := listfield.Dedupe(tokens)
	if len(dups) == 0 {
		return Unchanged
	}

	p.reporter.Report(FormatDuplicates(rec.DisplayName, field, dups))
	outcome := p.commit(ctx, rec, field, raw, listfield.Encode(kept, p.opts.Separator), dups, sum)
	if outcome == Changed {
		sum.DuplicatesRemoved += len(tokens) - len(kept)
	}
	return outcome
}

func (p *Processor) overlapPass(ctx context.Context, rules []FieldRule, sets map[string]*refset.Set, sum *Summary) error {
	fields := make([]string, len(rules))
	for i, r := range rules {
		fields[i] = r.Name
	}

	// Re-read so the dedupe pass writes are visible.
	records, err := p.store.Records(ctx, fields)
	if err != nil {
		return fmt.Errorf("overlap pass: %w", err)
	}
	p.logger.Debug("overlap pass", "fields", fields, "records", len(records))

	for _, rec := range records {
		sum.OverlapScanned++
		if rec.Err != nil {
			p.recordFailed(rec, sum)
			continue
		}
		for _, r := range rules {
			p.overlapField(ctx, rec, r.Name, sets[r.Category], sum)
		}
	}
	return nil
}

func (p *Processor) overlapField(ctx context.Context, rec store.Record, field string, set *refset.Set, sum *Summary) Outcome {
	raw := p.value(rec, field)
	tokens := listfield.Decode(raw, p.opts.Separator)
	kept, removed := listfield.Resolve(tokens, set)
	_, dups := listfield.Dedupe(tokens)
	if len(removed) == 0 && len(dups) == 0 {
		return Unchanged
	}

	if len(dups) > 0 {
		p.reporter.Report(FormatDuplicates(rec.DisplayName, field, dups))
	}
	if len(removed) > 0 {
		p.reporter.Report(FormatOverlaps(rec.DisplayName, field, removed))
	}

	dropped := make([]string, 0, len(dups)+len(removed))
	dropped = append(dropped, dups...)
	dropped = append(dropped, removed...)

	outcome := p.commit(ctx, rec, field, raw, listfield.Encode(kept, p.opts.Separator), dropped, sum)
	if outcome == Changed {
		sum.OverlapsRemoved += len(removed)
	}
	return outcome
}

// commit writes after when it differs from the stored raw value.
func (p *Processor) commit(ctx context.Context, rec store.Record, field, raw, after string, removed []string, sum *Summary) Outcome {
	if after == raw {
		sum.Detected++
		return Detected
	}

	if p.opts.DryRun {
		p.pending[pendingKey(rec, field)] = after
		p.reporter.Report(FormatWouldClean(rec.DisplayName, rec.ID, field, raw, after, removed))
		sum.Changed++
		return Changed
	}

	if err := p.store.UpdateField(ctx, rec.Key, field, after); err != nil {
		p.logger.Error("failed to update field", "record_id", rec.ID, "field", field, "error", err)
		sum.Failed++
		return Failed
	}

	p.reporter.Report(FormatCleaned(rec.DisplayName, rec.ID, field, raw, after, removed))
	sum.Changed++
	return Changed
}

// value returns the field value, including dry run results of earlier passes.
func (p *Processor) value(rec store.Record, field string) string {
	if v, ok := p.pending[pendingKey(rec, field)]; ok {
		return v
	}
	return rec.Fields[field]
}

func pendingKey(rec store.Record, field string) string {
	return rec.ID + "\x00" + field
}

func (p *Processor) recordFailed(rec store.Record, sum *Summary) {
	p.logger.Error("failed to read record", "row", rec.Row, "record_id", rec.ID, "error", rec.Err)
	sum.Failed++
}
