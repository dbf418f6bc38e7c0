package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/SkodaRunner/SQLiteOptimierer/internal/store"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// Config file names searched in the working directory.
const (
	ConfigFileName    = "sqliteoptimierer.yaml"
	ConfigFileNameAlt = "sqliteoptimierer.yml"
)

// EnvPrefix is the prefix of environment overrides. A double underscore
// separates nested keys: SQLITEOPT_TABLE__NAME sets table.name.
const EnvPrefix = "SQLITEOPT_"

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// flagKeys maps flag names to config keys where they differ.
var flagKeys = map[string]string{
	"ini":      "ini_file",
	"section":  "ini_section",
	"table":    "table.name",
	"id":       "table.id_column",
	"findings": "findings_file",
	"schema":   "schema_file",
	"fields":   "only_fields",
}

// findConfigFile finds the config file to use.
// Priority: explicit path > sqliteoptimierer.yaml > sqliteoptimierer.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

func defaults() map[string]any {
	fields := make([]any, 0, len(DefaultFields()))
	for _, f := range DefaultFields() {
		fields = append(fields, map[string]any{
			"name":     f.Name,
			"dedupe":   f.Dedupe,
			"category": f.Category,
		})
	}
	refs := map[string]any{}
	for category, ref := range DefaultReferences() {
		refs[category] = map[string]any{"table": ref.Table, "column": ref.Column}
	}

	return map[string]any{
		"driver":                store.DefaultDriver,
		"ini_file":              DefaultIniFile,
		"ini_section":           DefaultIniSection,
		"table.name":            DefaultTable,
		"table.id_column":       DefaultIDColumn,
		"table.name_column":     DefaultNameColumn,
		"table.fallback_column": DefaultFallback,
		"separator":             ";",
		"fields":                fields,
		"references":            refs,
		"findings_file":         DefaultFindingsFile,
		"audit_dir":             DefaultAuditDir,
		"schema_file":           DefaultSchemaFile,
		"schema_format":         DefaultSchemaFormat,
		"export_schema":         true,
		"maintenance":           true,
		"dry_run":               false,
		"verbose":               false,
		"output":                DefaultOutput,
		"log_level":             DefaultLogLevel,
	}
}

// LoadConfig loads configuration from defaults, the config file, environment
// variables and explicitly set flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables
	// Transform: SQLITEOPT_TABLE__NAME -> table.name
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, only those explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[f.Name]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			WeaklyTypedInput: true,
			TagName:          "koanf",
			Result:           &cfg,
		},
	}); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	for i := range cfg.OnlyFields {
		cfg.OnlyFields[i] = strings.TrimSpace(cfg.OnlyFields[i])
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// ParseLogLevel maps a level name to a slog level. Unknown names yield warn.
func ParseLogLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelWarn
	}
	return level
}
