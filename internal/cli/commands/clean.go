package commands

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/SkodaRunner/SQLiteOptimierer/internal/audit"
	"github.com/SkodaRunner/SQLiteOptimierer/internal/cleaner"
	"github.com/SkodaRunner/SQLiteOptimierer/internal/cli/output"
	"github.com/SkodaRunner/SQLiteOptimierer/internal/refset"
)

// NewCleanCommand creates the clean command.
func NewCleanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove duplicate and excluded entries from list fields",
		Long: `Clean the semicolon separated list fields of the templates table.

The run has two passes:
  1. Dedupe: every field with dedupe enabled loses case-insensitive
     duplicates. The first spelling of an entry is kept.
  2. Overlap: every field with a category loses entries that appear in
     that category's reference column (for example GeneralDonts.Template).

Fields are only written when something was found. Findings are printed,
written to the findings file and appended to the run's audit log.`,
		Example: `  # Clean the database named in SQLiteOptimierer.ini
  sqliteoptimierer clean

  # Report what would change without writing
  sqliteoptimierer clean --dry-run

  # Clean only one field of a specific database
  sqliteoptimierer clean --database EPG.sqlite --fields Donts`,
		Args: cobra.NoArgs,
		RunE: runClean,
	}

	cmd.Flags().String("findings", "", "Findings file (default: duplicates.txt)")
	cmd.Flags().StringSlice("fields", nil, "Only process these fields")
	cmd.Flags().Bool("dry-run", false, "Report changes without writing")
	cmd.Flags().Bool("export-schema", true, "Export the schema before cleaning")
	cmd.Flags().String("schema", "", "Schema file (default: schema.md)")
	cmd.Flags().Bool("maintenance", true, "Run VACUUM/optimize after cleaning")
	cmd.Flags().String("audit-dir", "", "Directory of the run audit logs (default: Log)")

	return cmd
}

func runClean(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cc := NewCommandContext(cmd)
	cfg, r := cc.Cfg, cc.Renderer

	if err := validConfig(cfg); err != nil {
		return err
	}

	runID := uuid.NewString()
	auditLog, err := audit.OpenLog(cfg.AuditDir, runID)
	if err != nil {
		return err
	}
	defer func() { _ = auditLog.Close() }()

	logger := audit.Tee(cc.Logger.Handler(), auditLog.Handler())
	logger.Info("run started", "dry_run", cfg.DryRun)

	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	r.Success(fmt.Sprintf("Connected to %s", db.Path()))

	if cfg.ExportSchema {
		if err := exportSchema(ctx, db, cfg.SchemaFile, cfg.SchemaFormat); err != nil {
			return err
		}
		r.StatusLine(cfg.SchemaFile, "success", "(schema exported)")
	}

	findings, err := audit.OpenFindings(cfg.FindingsFile)
	if err != nil {
		return err
	}
	defer func() { _ = findings.Close() }()

	reporter := cleaner.NewReporter(logger, r, findings, auditLog)

	rules := cfg.ActiveFields()
	categories := cleaner.Categories(rules)
	sources := make(map[string]refset.ColumnSource, len(categories))
	for _, category := range categories {
		ref := cfg.References[category]
		sources[category] = db.Column(ref.Table, ref.Column)
	}
	sets, err := refset.LoadAll(ctx, sources)
	if err != nil {
		return err
	}
	for _, category := range categories {
		reporter.Report(cleaner.FormatSetLoaded(category, sets[category].Len()))
	}

	proc := cleaner.NewProcessor(db.Table(cfg.Table.Spec()), reporter, logger, cleaner.Options{
		Fields:    rules,
		Separator: cfg.SeparatorRune(),
		DryRun:    cfg.DryRun,
	})
	sum, err := proc.Run(ctx, sets)
	if err != nil {
		return err
	}

	if cfg.Maintenance && !cfg.DryRun {
		db.Maintain(ctx)
	}

	renderSummary(r, sum)
	if sum.Failed > 0 {
		r.Warning(fmt.Sprintf("%d record fields could not be processed, see %s", sum.Failed, auditLog.Path()))
	}
	if err := findings.Close(); err != nil {
		return err
	}
	r.Success(fmt.Sprintf("Done. Findings saved to %s", cfg.FindingsFile))
	return nil
}

func renderSummary(r *output.Renderer, sum *cleaner.Summary) {
	title := "Summary"
	changed := "Fields cleaned"
	if sum.DryRun {
		title = "Summary (dry run)"
		changed = "Fields to clean"
	}

	r.Header(2, title)
	r.Table([]string{"Metric", "Count"}, [][]string{
		{"Records scanned (dedupe)", strconv.Itoa(sum.DedupeScanned)},
		{"Records scanned (overlap)", strconv.Itoa(sum.OverlapScanned)},
		{changed, strconv.Itoa(sum.Changed)},
		{"Duplicates removed", strconv.Itoa(sum.DuplicatesRemoved)},
		{"Overlaps removed", strconv.Itoa(sum.OverlapsRemoved)},
		{"Detected without change", strconv.Itoa(sum.Detected)},
		{"Failed", strconv.Itoa(sum.Failed)},
	})
}
