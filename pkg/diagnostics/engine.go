package diagnostics

import (
	"go.uber.org/zap"

	"github.com/lumencms/setup/pkg/config"
	"github.com/lumencms/setup/pkg/logging"
)

// Result is the outcome of a single environment check.
type Result struct {
	Key     string `json:"key"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Report collects the outcome of one full engine run.
// Results preserve check execution order; Errors mirrors every
// failing entry keyed the same way.
type Report struct {
	Success bool              `json:"success"`
	Results []Result          `json:"results"`
	Errors  map[string]string `json:"errors"`
}

// HasPassed reports whether the run produced no errors.
func (r *Report) HasPassed() bool {
	return len(r.Errors) == 0
}

// Engine runs the fixed battery of environment checks required
// before installation can proceed.
type Engine struct {
	paths  *config.Paths
	cfg    config.DiagnosticsConfig
	logger *logging.ColoredLogger
}

// NewEngine creates a diagnostics engine rooted at the given paths.
func NewEngine(paths *config.Paths, cfg config.DiagnosticsConfig, logger *logging.ColoredLogger) *Engine {
	return &Engine{
		paths:  paths,
		cfg:    cfg,
		logger: logger,
	}
}

// RunAll executes every check in fixed order and returns the report.
// A failing check never aborts the run; the full battery always
// completes. When autoFix is true, missing directories are created
// and non-writable directories are chmodded before being reported
// as errors.
func (e *Engine) RunAll(autoFix bool) *Report {
	e.logger.ComponentDebug(logging.ComponentDiagnostics, "running environment checks",
		zap.Bool("auto_fix", autoFix))

	report := &Report{
		Results: make([]Result, 0, 16),
		Errors:  make(map[string]string),
	}

	e.checkRuntimeVersion(report)
	e.checkCapabilities(report)
	e.checkDirectories(report, autoFix)
	e.checkWritability(report, autoFix)
	e.checkConfigDir(report)
	e.checkMemory(report)

	report.Success = report.HasPassed()

	if report.Success {
		e.logger.ComponentInfo(logging.ComponentDiagnostics, "all environment checks passed",
			zap.Int("checks", len(report.Results)))
	} else {
		e.logger.ComponentWarn(logging.ComponentDiagnostics, "environment checks failed",
			zap.Int("checks", len(report.Results)),
			zap.Int("errors", len(report.Errors)))
	}

	return report
}

// record appends a result and mirrors failures into the error map.
func (e *Engine) record(report *Report, key string, success bool, message string) {
	report.Results = append(report.Results, Result{
		Key:     key,
		Success: success,
		Message: message,
	})
	if !success {
		report.Errors[key] = message
	}
}
