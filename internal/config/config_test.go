package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/aidanlsb/kestrel/internal/sqlutil"
)

func TestLoadFrom(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")
	content := `
database = "postgres"
dsn = "postgres://localhost/kestrel"
user = "ada"
log_level = "debug"

[query]
parallel = true
default_sort = "due_date desc"

[ui]
accent = "39"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	want := &Config{
		Database: "postgres",
		DSN:      "postgres://localhost/kestrel",
		User:     "ada",
		LogLevel: "debug",
		Query:    QueryConfig{Parallel: true, DefaultSort: "due_date desc"},
		UI:       UIConfig{Accent: "39"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	d, err := cfg.Dialect()
	if err != nil || d != sqlutil.Postgres {
		t.Errorf("Dialect() = %q, %v", d, err)
	}
}

func TestLoadFromRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("notebook = \"/notes\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil || !strings.Contains(err.Error(), "notebook") {
		t.Errorf("err = %v, want unknown key error", err)
	}
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	if cfg.GetUser() != DefaultUser {
		t.Errorf("GetUser() = %q", cfg.GetUser())
	}
	dsn, err := cfg.GetDSN()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(dsn) != "tasks.db" {
		t.Errorf("GetDSN() = %q", dsn)
	}

	pg := &Config{Database: "postgres"}
	if _, err := pg.GetDSN(); err == nil {
		t.Error("expected error for postgres without dsn")
	}
	bad := &Config{Database: "oracle"}
	if _, err := bad.Dialect(); err == nil {
		t.Error("expected error for unsupported database")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := &Config{
		User:  "ada",
		Query: QueryConfig{DefaultSort: "title"},
		UI:    UIConfig{CodeTheme: "nord"},
	}
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "database") {
		t.Errorf("empty settings should be omitted:\n%s", raw)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kestrel", "config.toml")

	created, err := CreateDefault(path)
	if err != nil || !created {
		t.Fatalf("CreateDefault = %v, %v", created, err)
	}
	if _, err := LoadFrom(path); err != nil {
		t.Errorf("default config does not parse: %v", err)
	}

	created, err = CreateDefault(path)
	if err != nil || created {
		t.Errorf("second CreateDefault = %v, %v", created, err)
	}
}

func TestLoadResolvedMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, got, err := LoadResolved(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != path || cfg == nil {
		t.Errorf("LoadResolved = %+v, %q", cfg, got)
	}
}
