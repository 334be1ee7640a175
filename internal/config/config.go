// Package config loads subdump settings from an optional YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the settings of one run. Command-line flags override values
// read from a file.
type Config struct {
	// Source is the root whose subfolders are dumped. Empty means the
	// working directory.
	Source string `yaml:"source"`
	// Dest is the directory everything is copied into. Empty means the
	// working directory.
	Dest string `yaml:"dest"`
	// LogDir is where error and duplicate logs are written. Empty means
	// the destination directory.
	LogDir string `yaml:"log_dir"`

	// SkipFiles and SkipDirs name entries to leave out of the dump. Both
	// are empty by default so that every file is copied.
	SkipFiles []string `yaml:"skip_files"`
	SkipDirs  []string `yaml:"skip_dirs"`

	// LegacyCounter selects single-character counter arithmetic, so that
	// a(9).txt is followed by a(:).txt.
	LegacyCounter bool `yaml:"legacy_counter"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{}
}

// Load reads the YAML file at path on top of Default. An empty path returns
// the defaults. Unknown keys are rejected so typos do not go unnoticed.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// ParseRecursive interprets the positional recursion argument. Only "true",
// in any letter case and without surrounding spaces, enables recursion;
// every other value disables it.
func ParseRecursive(arg string) bool {
	return strings.EqualFold(arg, "true")
}
