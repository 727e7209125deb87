package httputil

import (
	"net/http"
	"strings"
)

// QueryParam returns the value of a query parameter, or defaultValue if not present.
func QueryParam(r *http.Request, key, defaultValue string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return defaultValue
}

// QueryParamBool returns the boolean value of a query parameter.
// Returns true if the parameter value is "true", "1", "yes", or "on" (case-insensitive).
// Returns defaultValue if the parameter is not present or has an invalid value.
func QueryParamBool(r *http.Request, key string, defaultValue bool) bool {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultValue
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// FormValue returns the trimmed value of a POST form field,
// or defaultValue when the field is absent or blank.
func FormValue(r *http.Request, key, defaultValue string) string {
	if v := strings.TrimSpace(r.PostFormValue(key)); v != "" {
		return v
	}
	return defaultValue
}

// FormValues collects the trimmed values of the named POST form fields.
// Absent or blank fields are omitted from the result entirely.
func FormValues(r *http.Request, keys ...string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if v := strings.TrimSpace(r.PostFormValue(key)); v != "" {
			out[key] = v
		}
	}
	return out
}

// HasFormField reports whether the POST form carries the named field,
// regardless of its value.
func HasFormField(r *http.Request, key string) bool {
	if r.PostForm == nil {
		_ = r.ParseForm()
	}
	_, ok := r.PostForm[key]
	return ok
}
