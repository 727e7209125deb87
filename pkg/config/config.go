package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SetupConfig holds the complete configuration for the setup tool.
type SetupConfig struct {
	// Root is the CMS installation root directory. All managed
	// directories (data, cache, config) are resolved beneath it.
	Root string `yaml:"root"`

	// HTTP configures the setup wizard's HTTP server.
	HTTP HTTPConfig `yaml:"http"`

	// Diagnostics configures environment checks.
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// HTTPConfig contains HTTP server settings for the wizard.
type HTTPConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`      // Address for the wizard server
	RequestTimeout  time.Duration `yaml:"request_timeout"`  // Per-request timeout
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // Graceful shutdown grace period
}

// DiagnosticsConfig contains environment check settings.
type DiagnosticsConfig struct {
	MinRuntimeVersion string `yaml:"min_runtime_version"` // Minimum Go runtime version required
	MinFreeMemoryMB   uint64 `yaml:"min_free_memory_mb"`  // Minimum free memory in MB (0 disables the check)
	AutoFix           bool   `yaml:"auto_fix"`            // Attempt to create/chmod missing directories
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`       // Log level (debug, info, warn, error)
	Format     string `yaml:"format"`      // Log format (json, console)
	OutputFile string `yaml:"output_file"` // Optional log file path
}

// DefaultConfig returns a setup configuration with sensible defaults.
// The root defaults to the current working directory.
func DefaultConfig() *SetupConfig {
	root, err := os.Getwd()
	if err != nil {
		root = "."
	}

	return &SetupConfig{
		Root: root,
		HTTP: HTTPConfig{
			ListenAddr:      ":8580",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Diagnostics: DiagnosticsConfig{
			// Keep in step with the go directive in go.mod; the check
			// only bites when the floor is raised past a deployed build.
			MinRuntimeVersion: "1.24",
			MinFreeMemoryMB:   64,
			AutoFix:           true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFromFile loads configuration from a YAML file, applying it on
// top of the defaults. Unknown keys are rejected so a typoed setting
// fails loudly instead of silently keeping its default.
func LoadFromFile(path string) (*SetupConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open setup config %s: %w", path, err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("invalid setup config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for obvious mistakes.
func (c *SetupConfig) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root directory must not be empty")
	}
	if c.HTTP.ListenAddr == "" {
		return fmt.Errorf("http.listen_addr must not be empty")
	}
	if c.Diagnostics.MinRuntimeVersion == "" {
		return fmt.Errorf("diagnostics.min_runtime_version must not be empty")
	}
	return nil
}
