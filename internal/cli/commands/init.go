package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SkodaRunner/SQLiteOptimierer/internal/store"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Sample bool
	Force  bool
}

// sampleTemplates are demo rows with duplicates and overlaps.
var sampleTemplates = []struct {
	name, template, donts, descDont, notChannel string
}{
	{"Tatort", "Krimi", "Wiederholung;Werbung;wiederholung", "Trailer;trailer", "ZDF;QVC"},
	{"", "Sportschau", "Werbung;Teleshopping", "", "ARD;ard;HSE"},
	{"Heute", "Nachrichten", "", "", ""},
}

var sampleDonts = []struct{ template, channel string }{
	{"Werbung", "QVC"},
	{"Teleshopping", "HSE"},
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	opts := &InitOptions{}

	cmd := &cobra.Command{
		Use:   "init [database]",
		Short: "Create an EPG database with the expected tables",
		Long: `Create a SQLite database with the Templates and GeneralDonts tables.

Existing databases are migrated in place; existing rows are kept.
Use --sample to add demo rows with duplicates and overlaps.`,
		Example: `  # Create EPG.sqlite in the current directory
  sqliteoptimierer init

  # Create a demo database
  sqliteoptimierer init demo.sqlite --sample`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			path := cc.Cfg.Database
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				path = databasePath(cc.Cfg, cc.Logger)
			}

			if err := runInit(cmd.Context(), path, opts); err != nil {
				return err
			}
			cc.Renderer.Success(fmt.Sprintf("Database %s initialized", path))
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Sample, "sample", false, "Insert demo rows")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Insert demo rows even if Templates is not empty")

	return cmd
}

func runInit(ctx context.Context, path string, opts *InitOptions) error {
	if _, err := os.Stat(path); err == nil && opts.Sample && !opts.Force {
		empty, err := templatesEmpty(ctx, path)
		if err != nil {
			return err
		}
		if !empty {
			return fmt.Errorf("%s already has templates. Use --force to add the demo rows anyway", path)
		}
	}

	db, err := store.Create(ctx, store.DefaultDriver, path, nil)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.Migrate(ctx); err != nil {
		return err
	}
	if !opts.Sample {
		return nil
	}

	for _, t := range sampleTemplates {
		if _, err := db.SQL().ExecContext(ctx,
			`INSERT INTO Templates (Name, Template, Donts, descDont, NotChannel) VALUES (?, ?, ?, ?, ?)`,
			t.name, t.template, t.donts, t.descDont, t.notChannel,
		); err != nil {
			return fmt.Errorf("failed to insert sample template: %w", err)
		}
	}
	for _, d := range sampleDonts {
		if _, err := db.SQL().ExecContext(ctx,
			`INSERT INTO GeneralDonts (Template, Channel) VALUES (?, ?)`, d.template, d.channel,
		); err != nil {
			return fmt.Errorf("failed to insert sample general dont: %w", err)
		}
	}
	return nil
}

func templatesEmpty(ctx context.Context, path string) (bool, error) {
	db, err := store.Open(ctx, store.DefaultDriver, path, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = db.Close() }()

	var n int
	if err := db.SQL().QueryRowContext(ctx, `SELECT COUNT(*) FROM Templates`).Scan(&n); err != nil {
		return true, nil //nolint:nilerr // no Templates table yet
	}
	return n == 0, nil
}
