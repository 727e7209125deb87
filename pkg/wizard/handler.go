package wizard

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/lumencms/setup/pkg/cache"
	"github.com/lumencms/setup/pkg/config"
	"github.com/lumencms/setup/pkg/dbconfig"
	"github.com/lumencms/setup/pkg/diagnostics"
	"github.com/lumencms/setup/pkg/errors"
	"github.com/lumencms/setup/pkg/httputil"
	"github.com/lumencms/setup/pkg/installer"
	"github.com/lumencms/setup/pkg/logging"
	"github.com/lumencms/setup/pkg/users"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Handler serves the installation wizard. It keeps no per-session
// state; every request is self-contained.
type Handler struct {
	paths   *config.Paths
	engine  *diagnostics.Engine
	clearer *cache.Clearer
	writer  *dbconfig.Writer
	service *installer.Service
	logger  *logging.ColoredLogger
	autoFix bool
}

// NewHandler wires the wizard against its collaborating services.
func NewHandler(
	paths *config.Paths,
	engine *diagnostics.Engine,
	clearer *cache.Clearer,
	writer *dbconfig.Writer,
	service *installer.Service,
	logger *logging.ColoredLogger,
	autoFix bool,
) *Handler {
	return &Handler{
		paths:   paths,
		engine:  engine,
		clearer: clearer,
		writer:  writer,
		service: service,
		logger:  logger,
		autoFix: autoFix,
	}
}

// Router builds the wizard's HTTP surface.
func (h *Handler) Router(requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/setup", http.StatusFound)
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteSuccess(w)
	})
	r.Get("/setup", h.handleGet)
	r.Post("/setup", h.handlePost)
	r.Get("/setup/complete", h.handleComplete)
	r.Get("/setup/diagnostics.json", h.handleDiagnosticsJSON)
	r.Get("/setup/state.json", h.handleStateJSON)
	return r
}

type pageData struct {
	Step           string
	Title          string
	Success        bool
	Error          string
	Report         *diagnostics.Report
	ConfigWritable bool
}

var stepTitles = map[Step]string{
	StepWelcome:        "Welcome",
	StepDiagnostics:    "Environment checks",
	StepDatabaseConfig: "Database configuration",
	StepTestConnection: "Connection test",
	StepAdminUser:      "Administrator account",
	StepInstall:        "Install",
	StepComplete:       "Complete",
	StepInstalled:      "Already installed",
}

// handleGet renders the step named by the query, applying the
// already-installed guard.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	step := ParseStep(httputil.QueryParam(r, "step", string(StepWelcome)))

	// A present database file forces the installed view unless the
	// caller explicitly overrides. This is the guard against
	// re-running install over live data.
	if h.service.DatabaseFileExists() && !httputil.QueryParamBool(r, "override", false) {
		step = StepInstalled
	}

	h.renderStep(w, r, step)
}

func (h *Handler) renderStep(w http.ResponseWriter, r *http.Request, step Step) {
	data := pageData{
		Step:    string(step),
		Title:   stepTitles[step],
		Success: httputil.QueryParam(r, "success", "") == "1",
		Error:   httputil.QueryParam(r, "error", ""),
	}

	switch step {
	case StepDiagnostics:
		// Run synchronously during render so the page always shows
		// the current environment, not a stale submit result.
		data.Report = h.engine.RunAll(h.autoFix)
	case StepDatabaseConfig:
		data.ConfigWritable = h.writer.IsWritable()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "setup.html", data); err != nil {
		h.logger.ComponentError(logging.ComponentWizard, "template render failed", zap.Error(err))
	}
}

// handlePost executes the requested action and redirects. POST never
// renders inline; the follow-up GET does.
func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.WriteError(w, errors.NewValidationError("body", "malformed form body", nil))
		return
	}

	action := Action(r.PostFormValue("action"))
	proceed := httputil.HasFormField(r, "proceed")

	var res Result
	switch action {
	case ActionDiagnostics:
		res = h.runDiagnostics()
	case ActionDatabaseConfig:
		if !proceed {
			res = h.writeDatabaseConfig(r)
		}
	case ActionTestConnection:
		res = h.testConnection(r)
	case ActionInstall:
		res = h.install(r)
	default:
		// Unknown action: re-render the current step, no change.
		h.handleGet(w, r)
		return
	}

	red := Transition(action, proceed, res)
	if red.Location == "" && red.Step == "" {
		h.handleGet(w, r)
		return
	}
	http.Redirect(w, r, red.URL("/setup"), http.StatusFound)
}

func (h *Handler) runDiagnostics() Result {
	h.clearer.ClearAll()
	report := h.engine.RunAll(h.autoFix)
	if !report.Success {
		return Errored("environment checks failed")
	}
	return OK()
}

func (h *Handler) writeDatabaseConfig(r *http.Request) Result {
	form := httputil.FormValues(r,
		"cms_database",
		"site_hostname", "site_port", "site_database",
		"site_username", "site_password",
	)
	if err := h.writer.Write(form); err != nil {
		h.logger.ComponentWarn(logging.ComponentWizard, "database config write failed", zap.Error(err))
		return Errored(err.Error())
	}
	h.clearer.ClearAll()
	return OK()
}

func (h *Handler) testConnection(r *http.Request) Result {
	if err := probeConnections(r.Context(), h.paths); err != nil {
		h.logger.ComponentWarn(logging.ComponentWizard, "connection test failed", zap.Error(err))
		return Errored(err.Error())
	}
	return OK()
}

func (h *Handler) install(r *http.Request) Result {
	admin := users.AdminData{
		Username: httputil.FormValue(r, "username", "admin"),
		Email:    httputil.FormValue(r, "email", ""),
		Password: httputil.FormValue(r, "password", ""),
	}

	ok, err := h.service.Install(r.Context(), &admin)
	if err != nil {
		h.logger.ComponentError(logging.ComponentWizard, "install failed", zap.Error(err))
		return Errored(err.Error())
	}
	if !ok {
		return Failed()
	}
	h.clearer.ClearAll()
	return OK()
}

// handleComplete re-validates installed state; the page bounces back
// to the wizard root when nothing is installed yet.
func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	if !h.service.IsInstalled(r.Context()) {
		http.Redirect(w, r, "/setup", http.StatusFound)
		return
	}

	data := struct {
		Problems []string
	}{
		Problems: h.service.Validate(r.Context()),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "complete.html", data); err != nil {
		h.logger.ComponentError(logging.ComponentWizard, "template render failed", zap.Error(err))
	}
}

// handleDiagnosticsJSON exposes the current report for tooling.
func (h *Handler) handleDiagnosticsJSON(w http.ResponseWriter, r *http.Request) {
	report := h.engine.RunAll(h.autoFix)
	httputil.WriteJSON(w, http.StatusOK, report)
}

// handleStateJSON exposes the installed check for tooling. The
// status code carries the verdict: 200 installed, 409 not installed,
// 4xx/5xx when the check itself failed.
func (h *Handler) handleStateJSON(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.State(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	code := http.StatusOK
	if !state.Installed() {
		code = errors.StatusCode(errors.ErrNotInstalled)
	}
	httputil.WriteJSON(w, code, map[string]any{
		"installed":          state.Installed(),
		"db_file_exists":     state.DBFileExists,
		"db_non_empty":       state.DBNonEmpty,
		"migrations_current": state.MigrationsCurrent,
	})
}
