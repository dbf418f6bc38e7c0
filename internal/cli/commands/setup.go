package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/SkodaRunner/SQLiteOptimierer/internal/cli/config"
	"github.com/SkodaRunner/SQLiteOptimierer/internal/cli/output"
	"github.com/SkodaRunner/SQLiteOptimierer/internal/configstore"
	"github.com/SkodaRunner/SQLiteOptimierer/internal/store"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// getConfig returns the loaded configuration, or the defaults when the
// command runs without the root command's pre-run (tests, direct calls).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	cfg, err := config.LoadConfig("", nil)
	if err != nil {
		return &config.Config{
			Driver:       store.DefaultDriver,
			Table:        config.TableConfig{Name: config.DefaultTable, IDColumn: config.DefaultIDColumn},
			Fields:       config.DefaultFields(),
			References:   config.DefaultReferences(),
			SchemaFormat: config.DefaultSchemaFormat,
			OutputFormat: config.DefaultOutput,
		}
	}
	return cfg
}

// databasePath returns the configured database path. Without an explicit
// path it reads the Path key of the INI file, falling back to EPG.sqlite.
func databasePath(cfg *config.Config, logger *slog.Logger) string {
	if cfg.Database != "" {
		return cfg.Database
	}
	s := configstore.NewStore(cfg.IniFile, cfg.IniSection)
	return configstore.ResolvePath(s, config.DefaultIniKey, config.DefaultDatabase, logger)
}

// openDatabase opens the configured database.
func openDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.DB, error) {
	path := databasePath(cfg, logger)
	db, err := store.Open(ctx, cfg.Driver, path, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database", "path", path, "driver", cfg.Driver)
	return db, nil
}

// validConfig validates cfg for commands that touch the database.
func validConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
