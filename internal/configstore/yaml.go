package configstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// YAMLStore reads and writes top-level or dotted keys of a YAML file.
type YAMLStore struct {
	path string
}

// NewYAMLStore returns a store for the YAML file at path.
func NewYAMLStore(path string) *YAMLStore {
	return &YAMLStore{path: path}
}

// Path returns the YAML file path.
func (s *YAMLStore) Path() string {
	return s.path
}

// Read returns the value of key.
func (s *YAMLStore) Read(key string) (string, error) {
	k, err := s.load()
	if err != nil {
		return "", err
	}
	if !k.Exists(key) {
		return "", fmt.Errorf("%w: %s in %s", ErrKeyNotFound, key, s.path)
	}
	return k.String(key), nil
}

// Write sets key to value, creating the file if needed.
func (s *YAMLStore) Write(key, value string) error {
	k, err := s.load()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		k = koanf.New(".")
	}

	if err := k.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	data, err := k.Marshal(yaml.Parser())
	if err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write yaml file: %w", err)
	}
	return nil
}

func (s *YAMLStore) load() (*koanf.Koanf, error) {
	if _, err := os.Stat(s.path); err != nil {
		return nil, fmt.Errorf("failed to read yaml file: %w", err)
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(s.path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to read yaml file: %w", err)
	}
	return k, nil
}
