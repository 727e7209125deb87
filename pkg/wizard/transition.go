package wizard

import (
	"net/url"
)

// Status classifies an action's outcome. Logical failure (the
// operation completed but reported false) is kept distinct from a
// thrown error so the two surface with different messages.
type Status int

const (
	StatusOK Status = iota
	StatusFailed
	StatusError
)

// Result is the typed outcome of executing an action.
type Result struct {
	Status  Status
	Message string
}

// OK is the plain success result.
func OK() Result { return Result{Status: StatusOK} }

// Failed marks a logical failure (clean false, nothing thrown).
func Failed() Result { return Result{Status: StatusFailed} }

// Errored marks a thrown failure carrying its message.
func Errored(msg string) Result { return Result{Status: StatusError, Message: msg} }

// validationFailedMarker is the fixed flag used when install returns
// a clean false instead of an error.
const validationFailedMarker = "validation-failed"

// Redirect describes where the wizard sends the browser after an
// action, post-redirect-get style.
type Redirect struct {
	// Step is the wizard step to land on. Ignored when Location is set.
	Step Step
	// Location, when non-empty, is a target outside the wizard.
	Location string
	// Success carries the literal "1" flag on success redirects.
	Success bool
	// Error carries the human-readable failure message, if any.
	Error string
}

// URL renders the redirect target. base is the wizard's mount path.
func (r Redirect) URL(base string) string {
	if r.Location != "" {
		return r.Location
	}
	q := url.Values{}
	q.Set("step", string(r.Step))
	if r.Success {
		q.Set("success", "1")
	}
	if r.Error != "" {
		q.Set("error", r.Error)
	}
	return base + "?" + q.Encode()
}

// Transition is the pure step map: given the requested action and
// its result, it yields the next redirect. Side effects happen
// before this is called; Transition only decides where to go.
func Transition(action Action, proceed bool, res Result) Redirect {
	switch action {
	case ActionDiagnostics:
		// Always redirect back to the diagnostics render, never
		// render inline on POST.
		if res.Status == StatusOK {
			return Redirect{Step: StepDiagnostics, Success: true}
		}
		return Redirect{Step: StepDiagnostics, Error: res.Message}

	case ActionDatabaseConfig:
		if proceed {
			// Pure navigation, no side effect happened.
			return Redirect{Step: StepDatabaseConfig}
		}
		if res.Status == StatusOK {
			return Redirect{Step: StepTestConnection, Success: true}
		}
		return Redirect{Step: StepDatabaseConfig, Error: res.Message}

	case ActionTestConnection:
		if res.Status == StatusOK {
			return Redirect{Step: StepAdminUser, Success: true}
		}
		return Redirect{Step: StepTestConnection, Error: res.Message}

	case ActionInstall:
		switch res.Status {
		case StatusOK:
			return Redirect{Location: "/setup/complete"}
		case StatusFailed:
			return Redirect{Step: StepAdminUser, Error: validationFailedMarker}
		default:
			return Redirect{Step: StepAdminUser, Error: res.Message}
		}
	}

	// Unknown actions are a no-op; the caller re-renders in place.
	return Redirect{}
}
