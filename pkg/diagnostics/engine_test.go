package diagnostics

import (
	"os"
	"path/filepath"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/lumencms/setup/pkg/config"
	"github.com/lumencms/setup/pkg/logging"
)

func newTestEngine(t *testing.T, root string) *Engine {
	t.Helper()
	logger, err := logging.NewColoredLogger(logging.ComponentDiagnostics, false)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	cfg := config.DiagnosticsConfig{
		MinRuntimeVersion: "1.20",
		MinFreeMemoryMB:   0, // keep memory check out of deterministic tests
	}
	return NewEngine(config.NewPaths(root), cfg, logger)
}

func TestRunAllCreatesMissingDirectories(t *testing.T) {
	root := t.TempDir()
	engine := newTestEngine(t, root)

	report := engine.RunAll(true)

	if !report.Success {
		t.Fatalf("expected success, errors: %v", report.Errors)
	}
	for _, dir := range config.NewPaths(root).RequiredDirs() {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("directory %s was not created", dir)
		}
	}
}

func TestRunAllWithoutAutoFixReportsMissingDirectories(t *testing.T) {
	root := t.TempDir()
	engine := newTestEngine(t, root)

	report := engine.RunAll(false)

	if report.Success {
		t.Fatal("expected failure on empty root without auto-fix")
	}
	if _, ok := report.Errors["directory_data"]; !ok {
		t.Error("expected directory_data error")
	}
	if _, ok := report.Errors["config_dir"]; !ok {
		t.Error("expected config_dir error")
	}
	// Writability of missing directories is owned by the directory
	// check; no writable_* errors should appear.
	for key := range report.Errors {
		if len(key) > 9 && key[:9] == "writable_" {
			t.Errorf("unexpected writability error %s for missing directory", key)
		}
	}
}

func TestRunAllIsIdempotentWithAutoFix(t *testing.T) {
	root := t.TempDir()
	engine := newTestEngine(t, root)

	first := engine.RunAll(true)
	second := engine.RunAll(true)

	if !first.Success || !second.Success {
		t.Fatalf("expected both runs to succeed: first=%v second=%v", first.Errors, second.Errors)
	}
	if len(first.Results) != len(second.Results) {
		t.Fatalf("result counts differ: %d vs %d", len(first.Results), len(second.Results))
	}
	for i := range first.Results {
		if first.Results[i].Key != second.Results[i].Key {
			t.Errorf("result order changed at %d: %s vs %s",
				i, first.Results[i].Key, second.Results[i].Key)
		}
		if first.Results[i].Success != second.Results[i].Success {
			t.Errorf("result %s changed outcome between runs", first.Results[i].Key)
		}
	}
}

func TestHasPassedMatchesErrorMap(t *testing.T) {
	root := t.TempDir()
	engine := newTestEngine(t, root)

	for _, autoFix := range []bool{false, true} {
		report := engine.RunAll(autoFix)
		if report.HasPassed() != (len(report.Errors) == 0) {
			t.Errorf("autoFix=%v: HasPassed()=%v but %d errors",
				autoFix, report.HasPassed(), len(report.Errors))
		}
		if report.Success != report.HasPassed() {
			t.Errorf("autoFix=%v: Success flag disagrees with HasPassed()", autoFix)
		}
	}
}

func TestCapabilityChecksPass(t *testing.T) {
	root := t.TempDir()
	engine := newTestEngine(t, root)

	report := engine.RunAll(true)

	wantKeys := []string{
		"capability_database_driver",
		"capability_file_database_driver",
		"capability_json",
		"capability_multibyte",
		"capability_tls",
		"capability_session",
	}
	got := make(map[string]Result, len(report.Results))
	for _, r := range report.Results {
		got[r.Key] = r
	}
	for _, key := range wantKeys {
		r, ok := got[key]
		if !ok {
			t.Errorf("missing result for %s", key)
			continue
		}
		if !r.Success {
			t.Errorf("%s failed: %s", key, r.Message)
		}
	}
}

func TestCheckOrderIsStable(t *testing.T) {
	root := t.TempDir()
	engine := newTestEngine(t, root)

	report := engine.RunAll(true)

	if len(report.Results) == 0 {
		t.Fatal("no results")
	}
	if report.Results[0].Key != "runtime_version" {
		t.Errorf("first check = %s, want runtime_version", report.Results[0].Key)
	}
	last := report.Results[len(report.Results)-1]
	if last.Key != "config_dir" {
		t.Errorf("last check = %s, want config_dir (memory check disabled)", last.Key)
	}
}

func TestAutoFixRestoresWritability(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root ignores directory permission bits")
	}

	root := t.TempDir()
	paths := config.NewPaths(root)
	for _, dir := range paths.RequiredDirs() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Chmod(paths.CacheDir(), 0555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(paths.CacheDir(), 0755) })

	engine := newTestEngine(t, root)

	report := engine.RunAll(false)
	if report.Success {
		t.Fatal("expected failure while the cache dir is read-only")
	}
	if _, ok := report.Errors["writable_cache"]; !ok {
		t.Fatalf("expected writable_cache error, got: %v", report.Errors)
	}

	report = engine.RunAll(true)
	if !report.Success {
		t.Fatalf("auto-fix did not recover writability: %v", report.Errors)
	}
	info, err := os.Stat(paths.CacheDir())
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0200 == 0 {
		t.Errorf("cache dir still read-only after auto-fix: %v", info.Mode())
	}
}

func TestWritabilityCheckSkipsMissingDirs(t *testing.T) {
	root := t.TempDir()
	// Only create the data dir; leave the rest missing.
	if err := os.MkdirAll(filepath.Join(root, "data"), 0755); err != nil {
		t.Fatal(err)
	}
	engine := newTestEngine(t, root)

	report := engine.RunAll(false)

	found := false
	for _, r := range report.Results {
		if r.Key == "writable_data" {
			found = true
			if !r.Success {
				t.Errorf("writable_data should pass for a fresh temp dir: %s", r.Message)
			}
		}
		if r.Key == "writable_cache" {
			t.Error("writable_cache should be skipped when the directory is missing")
		}
	}
	if !found {
		t.Error("expected a writable_data result")
	}
}
