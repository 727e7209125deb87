package dbconfig

import (
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/lumencms/setup/pkg/config"
	"github.com/lumencms/setup/pkg/errors"
	"github.com/lumencms/setup/pkg/logging"
)

// Config is the database configuration the setup tool writes out.
// A nil profile means the block is omitted from the artifact.
type Config struct {
	CMS  *CMSProfile
	Site *SiteProfile
}

// CMSProfile is the primary file-based database profile.
type CMSProfile struct {
	Database string
}

// SiteProfile is the optional networked database profile. Only
// non-zero fields are written to the artifact.
type SiteProfile struct {
	Hostname string
	Port     int
	Database string
	Username string
	Password string
}

func (p *SiteProfile) empty() bool {
	return p.Hostname == "" && p.Port == 0 && p.Database == "" &&
		p.Username == "" && p.Password == ""
}

// Writer persists database configuration as the application's
// autoload artifact. The file is replaced wholesale on every write.
type Writer struct {
	paths  *config.Paths
	logger *logging.ColoredLogger
}

// NewWriter creates a config writer rooted at the given paths.
func NewWriter(paths *config.Paths, logger *logging.ColoredLogger) *Writer {
	return &Writer{paths: paths, logger: logger}
}

// BuildFromForm assembles a Config from raw form fields. The cms
// profile is present only when cms_database is set; site fields are
// picked up individually and the whole site block is dropped when
// none qualified. A non-integer site_port is a validation error.
func BuildFromForm(form map[string]string) (*Config, error) {
	cfg := &Config{}

	if db := form["cms_database"]; db != "" {
		cfg.CMS = &CMSProfile{Database: db}
	}

	site := &SiteProfile{
		Hostname: form["site_hostname"],
		Database: form["site_database"],
		Username: form["site_username"],
		Password: form["site_password"],
	}
	if raw := form["site_port"]; raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.NewValidationError("site_port", "must be an integer", raw)
		}
		site.Port = port
	}
	if !site.empty() {
		cfg.Site = site
	}

	return cfg, nil
}

// Write builds a Config from form data and persists it to the
// autoload artifact, overwriting any previous content.
func (w *Writer) Write(form map[string]string) error {
	cfg, err := BuildFromForm(form)
	if err != nil {
		return err
	}
	return w.WriteConfig(cfg)
}

// WriteConfig persists an assembled Config to the autoload artifact.
func (w *Writer) WriteConfig(cfg *Config) error {
	target := w.paths.DatabaseConfigFile()
	dir := w.paths.AutoloadDir()

	if err := os.MkdirAll(dir, 0755); err != nil {
		if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
			return errors.NewConfigError(dir, "failed to create configuration directory", err)
		}
	}
	if !isWritableDir(dir) {
		return errors.NewConfigError(dir, "configuration directory is not writable", nil)
	}
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		if !isWritableFile(target) {
			return errors.NewConfigError(target, "existing configuration file is not writable", nil)
		}
	}

	artifact := renderArtifact(cfg)
	if err := os.WriteFile(target, []byte(artifact), 0644); err != nil {
		return errors.NewConfigError(target, "failed to write configuration file", err)
	}

	w.logger.ComponentInfo(logging.ComponentConfig, "database configuration written",
		zap.String("path", target))
	return nil
}

// IsWritable performs the same existence and writability checks as
// Write, without side effects. Used for pre-flight display.
func (w *Writer) IsWritable() bool {
	dir := w.paths.AutoloadDir()
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return false
	}
	if !isWritableDir(dir) {
		return false
	}
	target := w.paths.DatabaseConfigFile()
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		return isWritableFile(target)
	}
	return true
}

// Load reads a previously written artifact back into a Config.
// Only the subset of syntax emitted by this package is understood.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError(path, "failed to read configuration file", err)
	}
	cfg, err := parseArtifact(string(raw))
	if err != nil {
		return nil, errors.NewConfigError(path, fmt.Sprintf("failed to parse configuration file: %v", err), nil)
	}
	return cfg, nil
}

func isWritableDir(dir string) bool {
	f, err := os.CreateTemp(dir, ".write-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

func isWritableFile(path string) bool {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}
