package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestMissingConfig_KeepsFixOrder(t *testing.T) {
	err := MissingConfig("could not read config from consul.service.name",
		"Add consul.json to your config directory",
		"- add service.name",
	)
	if err.Code != ErrCodeMissingConfig {
		t.Errorf("expected code %s, got %s", ErrCodeMissingConfig, err.Code)
	}
	if err.Retryable {
		t.Error("MISSING_CONFIG should not be retryable")
	}
	want := []string{"Add consul.json to your config directory", "- add service.name"}
	if len(err.SuggestedFixes) != len(want) {
		t.Fatalf("expected %d fixes, got %d", len(want), len(err.SuggestedFixes))
	}
	for i := range want {
		if err.SuggestedFixes[i] != want[i] {
			t.Errorf("fix[%d] = %q, want %q", i, err.SuggestedFixes[i], want[i])
		}
	}
}

func TestMissingConfig_CopiesFixes(t *testing.T) {
	fixes := []string{"a", "b"}
	err := MissingConfig("reason", fixes...)
	fixes[0] = "changed"
	if err.SuggestedFixes[0] != "a" {
		t.Errorf("fixes should be copied, got %q", err.SuggestedFixes[0])
	}
}

func TestAppError_Error_Format(t *testing.T) {
	err := MissingConfig("no name", "add service.name")
	s := err.Error()
	if !strings.Contains(s, "MISSING_CONFIG") {
		t.Errorf("expected error string to contain code, got %q", s)
	}
	if !strings.Contains(s, "add service.name") {
		t.Errorf("expected error string to contain fixes, got %q", s)
	}

	wrapped := ExternalServiceError("consul", fmt.Errorf("connection refused"))
	if !strings.Contains(wrapped.Error(), "connection refused") {
		t.Errorf("Error() should contain cause, got %q", wrapped.Error())
	}
}

func TestAppError_WithFixes_Appends(t *testing.T) {
	err := InvalidConfig("consul.service.port", "must be a number").WithFixes("set a port", "or remove the key")
	if len(err.SuggestedFixes) != 2 {
		t.Fatalf("expected 2 fixes, got %d", len(err.SuggestedFixes))
	}
	if err.Details["key"] != "consul.service.port" {
		t.Errorf("expected key detail, got %v", err.Details["key"])
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := &AppError{}
	err.WithDetail("key", "value")
	if err.Details["key"] != "value" {
		t.Errorf("expected key=value, got %v", err.Details["key"])
	}
}

func TestIsConfigError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"missing", MissingConfig("x"), true},
		{"invalid", InvalidConfig("k", "bad"), true},
		{"wrapped", fmt.Errorf("register: %w", MissingConfig("x")), true},
		{"not found", NotFound("service", "api"), false},
		{"plain", fmt.Errorf("boom"), false},
		{"nil", nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsConfigError(tc.err); got != tc.want {
				t.Errorf("IsConfigError() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		status    int
		retryable bool
	}{
		{"MissingConfig", MissingConfig("r"), ErrCodeMissingConfig, http.StatusInternalServerError, false},
		{"InvalidConfig", InvalidConfig("k", "r"), ErrCodeInvalidConfig, http.StatusInternalServerError, false},
		{"Validation", Validation("bad input"), ErrCodeInvalidInput, http.StatusBadRequest, false},
		{"NotFound", NotFound("node", ""), ErrCodeNotFound, http.StatusNotFound, false},
		{"ServiceUnavailable", ServiceUnavailable("consul agent"), ErrCodeServiceUnavailable, http.StatusServiceUnavailable, true},
		{"ExternalServiceError", ExternalServiceError("consul", nil), ErrCodeExternalService, http.StatusBadGateway, true},
		{"Internal", Internal(nil), ErrCodeInternal, http.StatusInternalServerError, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, tc.err.HTTPStatus)
			}
			if tc.err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, tc.err.Retryable)
			}
		})
	}
}

func TestNew_RetryableDetection(t *testing.T) {
	if !New(ErrCodeServiceUnavailable, "down", http.StatusServiceUnavailable).Retryable {
		t.Error("SERVICE_UNAVAILABLE should be retryable")
	}
	if New(ErrCodeMissingConfig, "missing", http.StatusInternalServerError).Retryable {
		t.Error("MISSING_CONFIG should not be retryable")
	}
}

func TestAppError_ToResponse(t *testing.T) {
	resp := MissingConfig("no id", "- add service.id", "or", "- add service.name").ToResponse()
	if resp.Error.Code != ErrCodeMissingConfig {
		t.Errorf("expected MISSING_CONFIG in response, got %s", resp.Error.Code)
	}
	if len(resp.Error.SuggestedFixes) != 3 {
		t.Errorf("expected 3 fixes in response, got %d", len(resp.Error.SuggestedFixes))
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
	orig := MissingConfig("x")
	if Wrap(fmt.Errorf("outer: %w", orig)) != orig {
		t.Error("Wrap should unwrap to the original AppError")
	}
	plain := fmt.Errorf("something broke")
	got := Wrap(plain)
	if got.Code != ErrCodeInternal || got.Cause != plain {
		t.Errorf("expected INTERNAL_ERROR wrapping cause, got %v", got)
	}
}

func TestAppError_ImplementsErrorInterface(t *testing.T) {
	var err error = MissingConfig("x")
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		t.Error("stderrors.As should work with AppError")
	}
}
