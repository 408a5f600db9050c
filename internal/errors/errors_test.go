package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBootstrapError(t *testing.T) {
	cause := errors.New("network error")
	err := NewBootstrapError(cause)

	if !strings.Contains(err.Error(), "network error") {
		t.Errorf("Error() = %q, want it to contain the cause", err.Error())
	}
	if !Is(err, ErrBootstrapFailed) {
		t.Error("BootstrapError should match ErrBootstrapFailed")
	}
	if !Is(err, cause) {
		t.Error("BootstrapError should match its cause")
	}
	if err.IsRetryable() {
		t.Error("BootstrapError should not be retryable")
	}
	if GetSeverity(err) != SeverityCritical {
		t.Errorf("GetSeverity() = %v, want critical", GetSeverity(err))
	}

	wrapped := fmt.Errorf("mount: %w", err)
	var be *BootstrapError
	if !As(wrapped, &be) {
		t.Error("As should find BootstrapError through wrapping")
	}
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		retryable   bool
		unavailable bool
	}{
		{"bad request", http.StatusBadRequest, false, false},
		{"not found", http.StatusNotFound, false, false},
		{"too many requests", http.StatusTooManyRequests, true, false},
		{"internal", http.StatusInternalServerError, true, true},
		{"unavailable", http.StatusServiceUnavailable, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewAPIError(http.MethodGet, "/datasets", tt.status)
			if got := IsRetryable(err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
			if got := Is(err, ErrAPIUnavailable); got != tt.unavailable {
				t.Errorf("Is(ErrAPIUnavailable) = %v, want %v", got, tt.unavailable)
			}
		})
	}
}

func TestAPIError_WithBody(t *testing.T) {
	err := NewAPIError(http.MethodPost, "/datasets/1/get_metrics", 500).WithBody("  boom \n")
	want := "api error [POST /datasets/1/get_metrics, status=500]: Internal Server Error: boom"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	long := NewAPIError(http.MethodGet, "/x", 500).WithBody(strings.Repeat("a", 500))
	if len(long.Body) != 203 {
		t.Errorf("Body length = %d, want 203", len(long.Body))
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("'in' operator requires a list value").WithField("filters[0].value")

	if !Is(err, ErrInvalidQuery) {
		t.Error("ValidationError should match ErrInvalidQuery")
	}
	if !strings.Contains(err.Error(), "field=filters[0].value") {
		t.Errorf("Error() = %q, want field context", err.Error())
	}
	if !IsUserFacing(err) {
		t.Error("ValidationError should be user facing")
	}
}

func TestClassification_ForeignErrors(t *testing.T) {
	plain := errors.New("plain")
	if IsRetryable(plain) || IsUserFacing(plain) {
		t.Error("plain errors should be neither retryable nor user facing")
	}
	if GetSeverity(plain) != SeverityError {
		t.Errorf("GetSeverity(plain) = %v, want error", GetSeverity(plain))
	}
	if GetSeverity(nil) != SeverityDebug {
		t.Errorf("GetSeverity(nil) = %v, want debug", GetSeverity(nil))
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	err := Wrapf(ErrAlreadyInProgress, "start %s", "datasets")
	if !Is(err, ErrAlreadyInProgress) {
		t.Error("Wrapf should preserve the chain")
	}
	if err.Error() != "start datasets: operation already in progress" {
		t.Errorf("Error() = %q", err.Error())
	}
}
