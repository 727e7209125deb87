package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Root == "" {
		t.Fatal("default root must not be empty")
	}
	if cfg.HTTP.ListenAddr == "" {
		t.Fatal("default listen addr must not be empty")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "setup.yaml")
	content := `root: /srv/cms
http:
  listen_addr: ":9000"
diagnostics:
  min_runtime_version: "1.23"
  auto_fix: false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Root != "/srv/cms" {
		t.Errorf("root = %q, want /srv/cms", cfg.Root)
	}
	if cfg.HTTP.ListenAddr != ":9000" {
		t.Errorf("listen addr = %q, want :9000", cfg.HTTP.ListenAddr)
	}
	if cfg.Diagnostics.MinRuntimeVersion != "1.23" {
		t.Errorf("min runtime version = %q, want 1.23", cfg.Diagnostics.MinRuntimeVersion)
	}
	if cfg.Diagnostics.AutoFix {
		t.Error("auto_fix should be false")
	}
	// Unset sections keep their defaults.
	if cfg.Logging.Level != "info" {
		t.Errorf("logging level = %q, want default info", cfg.Logging.Level)
	}
}

func TestLoadFromFileRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "setup.yaml")
	if err := os.WriteFile(path, []byte("rooot: /typo\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("expected error for unknown key")
	} else if !strings.Contains(err.Error(), "invalid setup config") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPathsLayout(t *testing.T) {
	p := NewPaths("/srv/cms")

	want := map[string]string{
		"data":      filepath.Join("/srv/cms", "data"),
		"cms data":  filepath.Join("/srv/cms", "data", "cms"),
		"cache":     filepath.Join("/srv/cms", "data", "cache"),
		"config":    filepath.Join("/srv/cms", "config"),
		"autoload":  filepath.Join("/srv/cms", "config", "autoload"),
		"db config": filepath.Join("/srv/cms", "config", "autoload", "database.local.php"),
	}

	got := map[string]string{
		"data":      p.DataDir(),
		"cms data":  p.CMSDataDir(),
		"cache":     p.CacheDir(),
		"config":    p.ConfigDir(),
		"autoload":  p.AutoloadDir(),
		"db config": p.DatabaseConfigFile(),
	}

	for name, w := range want {
		if got[name] != w {
			t.Errorf("%s = %q, want %q", name, got[name], w)
		}
	}

	if len(p.RequiredDirs()) != 5 {
		t.Fatalf("expected 5 required dirs, got %d", len(p.RequiredDirs()))
	}
}
