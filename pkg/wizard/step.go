// Package wizard drives the multi-step HTTP installation flow. The
// wizard keeps no server-side session; every step and outcome is
// carried in redirect query parameters, so any page can be reloaded
// or bookmarked without corrupting the flow.
package wizard

// Step is a named stage in the installation flow.
type Step string

const (
	StepWelcome        Step = "welcome"
	StepDiagnostics    Step = "diagnostics"
	StepDatabaseConfig Step = "database-config"
	StepTestConnection Step = "test-connection"
	StepAdminUser      Step = "admin-user"
	StepInstall        Step = "install"
	StepComplete       Step = "complete"
	StepInstalled      Step = "installed"
)

// ParseStep maps a raw query value to a known step. Unknown values
// fall back to the welcome step.
func ParseStep(raw string) Step {
	switch Step(raw) {
	case StepWelcome, StepDiagnostics, StepDatabaseConfig, StepTestConnection,
		StepAdminUser, StepInstall, StepComplete, StepInstalled:
		return Step(raw)
	default:
		return StepWelcome
	}
}

// Action is a POST operation requested against the wizard.
type Action string

const (
	ActionDiagnostics    Action = "diagnostics"
	ActionDatabaseConfig Action = "database-config"
	ActionTestConnection Action = "test-connection"
	ActionInstall        Action = "install"
)
