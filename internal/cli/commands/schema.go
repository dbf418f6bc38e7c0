package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SkodaRunner/SQLiteOptimierer/internal/store"
)

// SchemaOptions holds options for the schema command.
type SchemaOptions struct {
	Format string
	Out    string
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	opts := &SchemaOptions{}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Export the database schema",
		Long: `Export every table of the database with its columns.

Formats:
  md    Markdown, one section per table (default)
  text  Boxed tables
  json  JSON array of tables
  yaml  YAML list of tables`,
		Example: `  # Print the schema as markdown
  sqliteoptimierer schema

  # Write a JSON schema file
  sqliteoptimierer schema --format json --out schema.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSchema(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "", "Output format (md|text|json|yaml)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Write to file instead of stdout")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return store.SchemaFormats(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runSchema(cmd *cobra.Command, opts *SchemaOptions) error {
	ctx := cmd.Context()
	cc := NewCommandContext(cmd)

	format := opts.Format
	if format == "" {
		format = cc.Cfg.SchemaFormat
	}

	db, err := openDatabase(ctx, cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if opts.Out == "" {
		tables, err := db.Schema(ctx)
		if err != nil {
			return err
		}
		return store.RenderSchema(cmd.OutOrStdout(), tables, format)
	}

	if err := exportSchema(ctx, db, opts.Out, format); err != nil {
		return err
	}
	cc.Renderer.Success(fmt.Sprintf("Schema exported to %s", opts.Out))
	return nil
}

// exportSchema writes the schema of db to path.
func exportSchema(ctx context.Context, db *store.DB, path, format string) error {
	tables, err := db.Schema(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create schema file: %w", err)
	}
	if err := store.RenderSchema(f, tables, format); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write schema file: %w", err)
	}
	return f.Close()
}
