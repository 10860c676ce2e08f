// Package config loads and persists the flat key-value configuration file
// used by androidArchiver (android_archiver.cfg).
//
// The file format is intentionally simple: one "key = value" pair per line,
// "#" or ";" starts a comment. Values may contain environment-variable
// placeholders in either $VAR/${VAR} or %VAR% form; both are expanded on
// load. Environment variables prefixed with ANDROID_ARCHIVER_ override the
// file contents.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v11"
)

// DefaultFileName is the config file looked up next to the executable.
const DefaultFileName = "android_archiver.cfg"

// Config holds the settings the engine depends on.
type Config struct {
	// BackupLocation is the default destination offered to the user.
	BackupLocation string `env:"BACKUP_LOCATION"`

	// ADBPath overrides the adb binary lookup (platform-tools next to the
	// executable, then $PATH).
	ADBPath string `env:"ADB_PATH"`
}

// DefaultConfig returns the built-in defaults used when no config file
// exists yet.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		BackupLocation: filepath.Join(home, "Documents", "AndroidBackup"),
	}
}

// windowsVarPattern matches %VAR% style placeholders carried over from
// configs written on Windows.
var windowsVarPattern = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_]*)%`)

// ExpandVars expands both $VAR/${VAR} and %VAR% environment placeholders.
// Unset variables expand to the empty string, matching os.ExpandEnv.
func ExpandVars(s string) string {
	s = windowsVarPattern.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(strings.Trim(m, "%"))
	})
	return os.ExpandEnv(s)
}

// Load reads the config file at path, applies defaults for missing keys,
// expands environment placeholders and finally applies ANDROID_ARCHIVER_*
// environment overrides.
//
// A missing file is not an error: the defaults are written back to path so
// the user has something to edit, and any write failure there is ignored.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// First run. Best effort: persist the defaults for later editing.
		_ = Save(path, cfg)
	case err != nil:
		return nil, fmt.Errorf("open config %s: %w", path, err)
	default:
		defer f.Close()
		if err := parseInto(f, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.BackupLocation = ExpandVars(cfg.BackupLocation)
	cfg.ADBPath = ExpandVars(cfg.ADBPath)

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "ANDROID_ARCHIVER_"}); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}
	return cfg, nil
}

// parseInto scans "key = value" lines from r into cfg. Unknown keys are
// ignored so older binaries tolerate newer config files.
func parseInto(f *os.File, cfg *Config) error {
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch strings.ToLower(key) {
		case "backup_location":
			cfg.BackupLocation = value
		case "adb_path":
			cfg.ADBPath = value
		}
	}
	return scanner.Err()
}

// Save writes cfg to path in the flat key-value format.
func Save(path string, cfg *Config) error {
	var b strings.Builder
	b.WriteString("# androidArchiver configuration\n")
	fmt.Fprintf(&b, "backup_location = %s\n", cfg.BackupLocation)
	if cfg.ADBPath != "" {
		fmt.Fprintf(&b, "adb_path = %s\n", cfg.ADBPath)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// DefaultPath returns the config file path next to the executable, falling
// back to the working directory when the executable path is unknown.
func DefaultPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(filepath.Dir(execPath), DefaultFileName)
}
