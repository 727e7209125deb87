package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/lumencms/setup/pkg/errors"
)

// WriteJSON writes v as a JSON body with the given status code.
// Encoding failures are swallowed; the status line is already out.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": message}, deriving the HTTP status
// from the error's type via errors.StatusCode. Typed setup errors
// (validation, not-installed) keep their status; everything else is
// a 500.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, errors.StatusCode(err), map[string]any{"error": err.Error()})
}

// WriteSuccess writes the bare {"status": "ok"} health response.
func WriteSuccess(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
