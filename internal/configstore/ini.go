package configstore

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// iniOptions keeps values verbatim: Windows paths end in backslashes and may
// contain '#' or ';'.
var iniOptions = ini.LoadOptions{
	IgnoreContinuation:  true,
	IgnoreInlineComment: true,
}

// IniStore reads and writes keys of one section of an INI file.
// Section and key names compare case-insensitively and keep their spelling
// on rewrite. Comments survive rewrites.
type IniStore struct {
	path    string
	section string
}

// NewIniStore returns a store for section in the INI file at path.
func NewIniStore(path, section string) *IniStore {
	return &IniStore{path: path, section: section}
}

// Path returns the INI file path.
func (s *IniStore) Path() string {
	return s.path
}

// Read returns the value of key.
func (s *IniStore) Read(key string) (string, error) {
	cfg, err := ini.LoadSources(iniOptions, s.path)
	if err != nil {
		return "", fmt.Errorf("failed to read ini file: %w", err)
	}

	if k := findKey(findSection(cfg, s.section), key); k != nil {
		return k.Value(), nil
	}
	return "", fmt.Errorf("%w: [%s] %s in %s", ErrKeyNotFound, s.section, key, s.path)
}

// Write sets key to value, creating the file and section as needed.
func (s *IniStore) Write(key, value string) error {
	opts := iniOptions
	opts.Loose = true
	cfg, err := ini.LoadSources(opts, s.path)
	if err != nil {
		return fmt.Errorf("failed to read ini file: %w", err)
	}

	sec := findSection(cfg, s.section)
	if sec == nil {
		if sec, err = cfg.NewSection(s.section); err != nil {
			return fmt.Errorf("failed to add ini section: %w", err)
		}
	}
	if k := findKey(sec, key); k != nil {
		k.SetValue(value)
	} else if _, err := sec.NewKey(key, value); err != nil {
		return fmt.Errorf("failed to add ini key: %w", err)
	}

	if err := cfg.SaveTo(s.path); err != nil {
		return fmt.Errorf("failed to write ini file: %w", err)
	}
	return nil
}

func findSection(cfg *ini.File, name string) *ini.Section {
	for _, sec := range cfg.Sections() {
		if strings.EqualFold(sec.Name(), name) {
			return sec
		}
	}
	return nil
}

func findKey(sec *ini.Section, name string) *ini.Key {
	if sec == nil {
		return nil
	}
	for _, k := range sec.Keys() {
		if strings.EqualFold(k.Name(), name) {
			return k
		}
	}
	return nil
}
