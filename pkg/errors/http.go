package errors

import (
	"errors"
	"net/http"
)

// StatusCode returns the HTTP status code for an error. The JSON
// endpoints use it to keep typed errors out of raw 500 responses.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var customErr Error
	if errors.As(err, &customErr) {
		return codeToHTTPStatus(customErr.Code())
	}

	if errors.Is(err, ErrNotInstalled) {
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

// codeToHTTPStatus maps error codes to HTTP status codes.
func codeToHTTPStatus(code string) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
