// Package config loads the optional obfustr.toml project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file the tool looks for near its targets.
const FileName = "obfustr.toml"

// Config holds project-level settings for the obfustr tool. Command line
// flags override anything set here.
type Config struct {
	// Runtime is the import path of the runtime decode package.
	Runtime string `toml:"runtime"`
	// Seed is a hex string enabling deterministic keys for reproducible
	// builds. Empty means fresh random keys on every run.
	Seed string `toml:"seed"`
	// LogLevel sets tool verbosity: trace, debug, info, warn or error.
	LogLevel string `toml:"log_level"`
	// Exclude lists glob patterns of file base names the tool skips.
	Exclude []string `toml:"exclude"`
}

// Default returns the configuration used when no obfustr.toml exists.
func Default() *Config {
	return &Config{}
}

// Read parses the file at path. Unknown keys are rejected so that a typo
// in the config does not silently change tool behavior.
func Read(path string) (*Config, error) {
	var c Config
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown configuration key %q", path, undecoded[0].String())
	}
	return &c, nil
}

// Locate searches dir and its parents for FileName. The search stops at
// the module boundary (a directory containing go.mod) so one project's
// configuration never leaks into another.
func Locate(dir string) (string, bool) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		path := filepath.Join(dir, FileName)
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			return path, true
		}
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return "", false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
