package diagnostics

import (
	"crypto/rand"
	"crypto/tls"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"unicode/utf8"

	goversion "github.com/hashicorp/go-version"
	"github.com/mackerelio/go-osstat/memory"
)

const dirMode = 0755

// checkRuntimeVersion compares the running Go version against the
// configured minimum. Never auto-fixed.
func (e *Engine) checkRuntimeVersion(report *Report) {
	current := strings.TrimPrefix(runtime.Version(), "go")

	cur, err := goversion.NewVersion(current)
	if err != nil {
		e.record(report, "runtime_version", false,
			fmt.Sprintf("cannot parse runtime version %q: %v", current, err))
		return
	}
	min, err := goversion.NewVersion(e.cfg.MinRuntimeVersion)
	if err != nil {
		e.record(report, "runtime_version", false,
			fmt.Sprintf("cannot parse minimum version %q: %v", e.cfg.MinRuntimeVersion, err))
		return
	}

	if cur.LessThan(min) {
		e.record(report, "runtime_version", false,
			fmt.Sprintf("runtime version %s is below the required minimum %s", current, e.cfg.MinRuntimeVersion))
		return
	}
	e.record(report, "runtime_version", true,
		fmt.Sprintf("runtime version %s meets minimum %s", current, e.cfg.MinRuntimeVersion))
}

// capability is one required runtime facility. Missing capabilities
// are unconditional errors and never auto-fixed.
type capability struct {
	name  string
	probe func() error
}

func requiredCapabilities() []capability {
	return []capability{
		{"database_driver", func() error { return probeSQLDriver("mysql") }},
		{"file_database_driver", func() error { return probeSQLDriver("sqlite3") }},
		{"json", probeJSON},
		{"multibyte", probeMultibyte},
		{"tls", probeTLS},
		{"session", probeSessionEntropy},
	}
}

func probeSQLDriver(name string) error {
	for _, d := range sql.Drivers() {
		if d == name {
			return nil
		}
	}
	return fmt.Errorf("sql driver %q is not registered", name)
}

func probeJSON() error {
	type sample struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	in := sample{Name: "probe", Count: 1}
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("json encode failed: %w", err)
	}
	var out sample
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("json decode failed: %w", err)
	}
	if out != in {
		return fmt.Errorf("json round-trip mismatch")
	}
	return nil
}

func probeMultibyte() error {
	s := "héllo wörld — 日本語"
	if !utf8.ValidString(s) {
		return fmt.Errorf("multibyte string handling is broken")
	}
	if utf8.RuneCountInString(s) >= len(s) {
		return fmt.Errorf("multibyte rune counting is broken")
	}
	return nil
}

func probeTLS() error {
	if len(tls.CipherSuites()) == 0 {
		return fmt.Errorf("no TLS cipher suites available")
	}
	return nil
}

func probeSessionEntropy() error {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("session token entropy unavailable: %w", err)
	}
	return nil
}

// checkCapabilities verifies every required runtime capability.
func (e *Engine) checkCapabilities(report *Report) {
	for _, cap := range requiredCapabilities() {
		key := "capability_" + cap.name
		if err := cap.probe(); err != nil {
			e.record(report, key, false, err.Error())
			continue
		}
		e.record(report, key, true, fmt.Sprintf("capability %s is available", cap.name))
	}
}

// namedDir pairs a stable check identifier with a resolved path.
type namedDir struct {
	name string
	path string
}

func (e *Engine) requiredDirs() []namedDir {
	return []namedDir{
		{"data", e.paths.DataDir()},
		{"cms_data", e.paths.CMSDataDir()},
		{"cache", e.paths.CacheDir()},
		{"config", e.paths.ConfigDir()},
		{"config_autoload", e.paths.AutoloadDir()},
	}
}

// writableDirs is the subset of required directories that must also
// be writable for installation to proceed.
func (e *Engine) writableDirs() []namedDir {
	return []namedDir{
		{"data", e.paths.DataDir()},
		{"cms_data", e.paths.CMSDataDir()},
		{"cache", e.paths.CacheDir()},
		{"config_autoload", e.paths.AutoloadDir()},
	}
}

// checkDirectories verifies every required directory exists,
// creating it when autoFix is enabled. Creation failure where the
// directory still does not exist afterwards is an error.
func (e *Engine) checkDirectories(report *Report, autoFix bool) {
	for _, d := range e.requiredDirs() {
		key := "directory_" + d.name

		if dirExists(d.path) {
			e.record(report, key, true, fmt.Sprintf("directory %s exists", d.path))
			continue
		}

		if !autoFix {
			e.record(report, key, false, fmt.Sprintf("directory %s does not exist", d.path))
			continue
		}

		mkErr := os.MkdirAll(d.path, dirMode)
		if !dirExists(d.path) {
			msg := fmt.Sprintf("failed to create directory %s", d.path)
			if mkErr != nil {
				msg = fmt.Sprintf("%s: %v", msg, mkErr)
			}
			e.record(report, key, false, msg)
			continue
		}
		e.record(report, key, true, fmt.Sprintf("created directory %s", d.path))
	}
}

// checkWritability verifies the writable subset of directories.
// Directories that do not exist are skipped silently; their absence
// is owned by checkDirectories.
func (e *Engine) checkWritability(report *Report, autoFix bool) {
	for _, d := range e.writableDirs() {
		if !dirExists(d.path) {
			continue
		}
		key := "writable_" + d.name

		if isWritableDir(d.path) {
			e.record(report, key, true, fmt.Sprintf("directory %s is writable", d.path))
			continue
		}

		if autoFix {
			if err := os.Chmod(d.path, dirMode); err == nil && isWritableDir(d.path) {
				e.record(report, key, true, fmt.Sprintf("made directory %s writable", d.path))
				continue
			}
		}
		e.record(report, key, false, fmt.Sprintf("directory %s is not writable", d.path))
	}
}

// checkConfigDir is the combined existence-and-writability check for
// the autoload directory. It is recorded independently of the
// per-directory checks above.
func (e *Engine) checkConfigDir(report *Report) {
	dir := e.paths.AutoloadDir()
	if !dirExists(dir) {
		e.record(report, "config_dir", false,
			fmt.Sprintf("configuration directory %s does not exist", dir))
		return
	}
	if !isWritableDir(dir) {
		e.record(report, "config_dir", false,
			fmt.Sprintf("configuration directory %s is not writable", dir))
		return
	}
	e.record(report, "config_dir", true,
		fmt.Sprintf("configuration directory %s is writable", dir))
}

// checkMemory verifies free memory headroom. Disabled when the
// configured floor is zero.
func (e *Engine) checkMemory(report *Report) {
	if e.cfg.MinFreeMemoryMB == 0 {
		return
	}

	stats, err := memory.Get()
	if err != nil {
		e.record(report, "memory", false,
			fmt.Sprintf("cannot read memory statistics: %v", err))
		return
	}

	freeMB := stats.Free / (1024 * 1024)
	if freeMB < e.cfg.MinFreeMemoryMB {
		e.record(report, "memory", false,
			fmt.Sprintf("only %d MB free memory, %d MB required", freeMB, e.cfg.MinFreeMemoryMB))
		return
	}
	e.record(report, "memory", true,
		fmt.Sprintf("%d MB free memory available", freeMB))
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// isWritableDir probes writability by creating and removing a
// temporary file. Permission bits alone are unreliable on mounts
// with their own access control.
func isWritableDir(dir string) bool {
	f, err := os.CreateTemp(dir, ".write-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(filepath.Join(dir, filepath.Base(name)))
	return true
}
