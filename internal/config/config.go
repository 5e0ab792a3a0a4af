// Package config handles global kestrel configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/kestrel/internal/atomicfile"
	"github.com/aidanlsb/kestrel/internal/sqlutil"
)

// DefaultUser owns tasks when no user is configured.
const DefaultUser = "default"

// Config represents the global kestrel configuration.
type Config struct {
	// Database selects the backend: "sqlite" (default) or "postgres".
	Database string `toml:"database"`

	// DSN is the SQLite file path or PostgreSQL connection string.
	// Defaults to <data dir>/kestrel/tasks.db for SQLite.
	DSN string `toml:"dsn"`

	// User scopes every read and write.
	User string `toml:"user"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	Query QueryConfig `toml:"query"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`
}

// QueryConfig tunes filter evaluation.
type QueryConfig struct {
	// Parallel evaluates both sides of AND/OR concurrently.
	Parallel bool `toml:"parallel"`

	// DefaultSort applies when a query has no ORDER BY, e.g. "due_date asc".
	DefaultSort string `toml:"default_sort"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an optional accent color for CLI output and markdown rendering.
	// Supported values are ANSI color codes ("0" to "255") or hex colors ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used for rendered markdown code blocks.
	// Example values: "monokai", "dracula", "github", "nord".
	CodeTheme string `toml:"code_theme"`
}

// Dialect returns the configured SQL dialect.
func (c *Config) Dialect() (sqlutil.Dialect, error) {
	d, ok := sqlutil.ParseDialect(c.Database)
	if !ok {
		return "", fmt.Errorf("unsupported database %q (expected sqlite or postgres)", c.Database)
	}
	return d, nil
}

// GetDSN returns the connection string, falling back to the default SQLite path.
func (c *Config) GetDSN() (string, error) {
	if dsn := strings.TrimSpace(c.DSN); dsn != "" {
		return dsn, nil
	}
	d, err := c.Dialect()
	if err != nil {
		return "", err
	}
	if d != sqlutil.SQLite {
		return "", fmt.Errorf("dsn is required for database %q", d)
	}
	return DefaultDatabasePath(), nil
}

// GetUser returns the configured user or DefaultUser.
func (c *Config) GetUser() string {
	if u := strings.TrimSpace(c.User); u != "" {
		return u
	}
	return DefaultUser
}

// Load loads the configuration from the default location.
// Returns a default config if the file doesn't exist.
func Load() (*Config, error) {
	configPath := DefaultPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var config Config
	md, err := toml.DecodeFile(path, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}
	return &config, nil
}

// ResolveConfigPath resolves the effective config path from an optional override.
func ResolveConfigPath(explicitConfigPath string) string {
	if strings.TrimSpace(explicitConfigPath) != "" {
		return explicitConfigPath
	}
	return DefaultPath()
}

// LoadResolved loads the config at the resolved path, tolerating a missing file.
func LoadResolved(explicitConfigPath string) (*Config, string, error) {
	path := ResolveConfigPath(explicitConfigPath)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, path, nil
	}
	cfg, err := LoadFrom(path)
	return cfg, path, err
}

// DefaultPath returns the default config file path.
// Checks ~/.config/kestrel/config.toml first (XDG style),
// then falls back to OS-specific location.
func DefaultPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		xdgPath := filepath.Join(home, ".config", "kestrel", "config.toml")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "kestrel", "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

// DefaultDatabasePath returns where the SQLite database lives by default.
func DefaultDatabasePath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "kestrel", "tasks.db")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "kestrel", "tasks.db")
	}
	return filepath.Join(".", "tasks.db")
}

const defaultConfig = `# kestrel configuration

# Backend: "sqlite" (default) or "postgres".
# database = "sqlite"
#
# SQLite file path or PostgreSQL connection string.
# dsn = "postgres://localhost/kestrel?sslmode=disable"

# Tasks are scoped to this user.
# user = "default"

# debug, info, warn or error.
# log_level = "warn"

# [query]
# Evaluate both sides of AND/OR concurrently.
# parallel = false
# Sort applied when a query has no ORDER BY.
# default_sort = "due_date asc"

# Optional UI accent color for headers in terminal output.
# Supports ANSI color codes (0-255) or hex (#RRGGBB).
# [ui]
# accent = "39"
# code_theme = "monokai"
`

// CreateDefault writes a commented default config to path if it doesn't
// exist. It reports whether a file was created.
func CreateDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := atomicfile.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}

	return true, nil
}
