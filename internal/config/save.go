package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aidanlsb/kestrel/internal/atomicfile"
)

type persistedConfig struct {
	Database *string                 `toml:"database,omitempty"`
	DSN      *string                 `toml:"dsn,omitempty"`
	User     *string                 `toml:"user,omitempty"`
	LogLevel *string                 `toml:"log_level,omitempty"`
	Query    *persistedQuerySettings `toml:"query,omitempty"`
	UI       *persistedUISettings    `toml:"ui,omitempty"`
}

type persistedQuerySettings struct {
	Parallel    bool    `toml:"parallel,omitempty"`
	DefaultSort *string `toml:"default_sort,omitempty"`
}

type persistedUISettings struct {
	Accent    *string `toml:"accent,omitempty"`
	CodeTheme *string `toml:"code_theme,omitempty"`
}

func nonEmptyPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// SaveTo writes the config to a specific path atomically. Empty settings
// are omitted.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	out := persistedConfig{
		Database: nonEmptyPtr(cfg.Database),
		DSN:      nonEmptyPtr(cfg.DSN),
		User:     nonEmptyPtr(cfg.User),
		LogLevel: nonEmptyPtr(cfg.LogLevel),
	}

	defaultSort := nonEmptyPtr(cfg.Query.DefaultSort)
	if cfg.Query.Parallel || defaultSort != nil {
		out.Query = &persistedQuerySettings{
			Parallel:    cfg.Query.Parallel,
			DefaultSort: defaultSort,
		}
	}

	accent := nonEmptyPtr(cfg.UI.Accent)
	codeTheme := nonEmptyPtr(cfg.UI.CodeTheme)
	if accent != nil || codeTheme != nil {
		out.UI = &persistedUISettings{
			Accent:    accent,
			CodeTheme: codeTheme,
		}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := atomicfile.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}

	return nil
}
