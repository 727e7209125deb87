package httputil

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/lumencms/setup/pkg/errors"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"name": "setup"})

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["name"] != "setup" {
		t.Errorf("body = %v", body)
	}
}

func TestWriteErrorDerivesStatusFromType(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation maps to 400", errors.NewValidationError("site_port", "must be an integer", "x"), http.StatusBadRequest},
		{"not installed maps to 409", errors.ErrNotInstalled, http.StatusConflict},
		{"config error maps to 500", errors.NewConfigError("/p", "unwritable", nil), http.StatusInternalServerError},
		{"plain error maps to 500", stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["error"] == "" {
				t.Error("error message missing from body")
			}
		})
	}
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestQueryParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/setup?step=diagnostics&override=yes&flag=0", nil)

	if got := QueryParam(req, "step", "welcome"); got != "diagnostics" {
		t.Errorf("QueryParam step = %q", got)
	}
	if got := QueryParam(req, "missing", "welcome"); got != "welcome" {
		t.Errorf("QueryParam default = %q", got)
	}
	if !QueryParamBool(req, "override", false) {
		t.Error("override=yes should be true")
	}
	if QueryParamBool(req, "flag", true) {
		t.Error("flag=0 should be false")
	}
	if !QueryParamBool(req, "missing", true) {
		t.Error("missing param should keep default")
	}
}

func TestFormHelpers(t *testing.T) {
	form := url.Values{
		"username": {"  admin  "},
		"email":    {""},
		"proceed":  {""},
	}
	req := httptest.NewRequest(http.MethodPost, "/setup", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if got := FormValue(req, "username", "fallback"); got != "admin" {
		t.Errorf("FormValue username = %q", got)
	}
	if got := FormValue(req, "email", "none@example.com"); got != "none@example.com" {
		t.Errorf("FormValue empty field = %q", got)
	}

	vals := FormValues(req, "username", "email", "missing")
	if len(vals) != 1 || vals["username"] != "admin" {
		t.Errorf("FormValues = %v", vals)
	}

	if !HasFormField(req, "proceed") {
		t.Error("HasFormField must detect empty-valued fields")
	}
	if HasFormField(req, "missing") {
		t.Error("HasFormField must be false for absent fields")
	}
}
