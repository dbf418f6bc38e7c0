// Package configstore reads and writes single configuration keys.
//
// It is the small key/value store the optimizer consults for the database
// path. Two file formats are supported: classic INI files and YAML files.
package configstore

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
)

// ErrKeyNotFound is returned by Read when the key is absent.
var ErrKeyNotFound = errors.New("key not found")

// Store is a single key read/write store.
type Store interface {
	Read(key string) (string, error)
	Write(key, value string) error
}

// NewStore returns a store for path, chosen by file extension.
// .yaml and .yml files use YAMLStore, everything else IniStore with section.
func NewStore(path, section string) Store {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return NewYAMLStore(path)
	default:
		return NewIniStore(path, section)
	}
}

// ResolvePath reads key from s. When the key cannot be read or is empty it
// logs a warning, writes fallback back to s and returns fallback.
func ResolvePath(s Store, key, fallback string, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	value, err := s.Read(key)
	if err == nil && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}

	if err != nil {
		logger.Warn("config key unreadable, using default", "key", key, "default", fallback, "error", err)
	} else {
		logger.Warn("config key empty, using default", "key", key, "default", fallback)
	}

	if werr := s.Write(key, fallback); werr != nil {
		logger.Warn("failed to persist default", "key", key, "error", werr)
	}
	return fallback
}
