// Package errors provides the error definitions shared across teehrview.
//
// The package follows a small taxonomy:
//   - Sentinel errors for conditions callers compare against with Is.
//   - BootstrapError, the single error kind surfaced by the workflow core
//     when the initial dataset listing fails.
//   - APIError for non-2xx responses from the TEEHR dataset API.
//   - ValidationError for metric queries rejected before they are sent.
//
// # Usage
//
//	err := errors.NewBootstrapError(cause)
//	if errors.Is(err, errors.ErrBootstrapFailed) { ... }
//
//	var apiErr *errors.APIError
//	if errors.As(err, &apiErr) && apiErr.IsRetryable() { ... }
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Re-export standard library functions so callers only import this package.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Workflow sentinel errors
var (
	// ErrAlreadyInProgress is returned when a loader is started while its
	// operation is still pending.
	ErrAlreadyInProgress = New("operation already in progress")
	// ErrAlreadySettled is returned when a loader that already succeeded or
	// failed is started again.
	ErrAlreadySettled = New("operation already settled")
	// ErrBootstrapFailed matches every BootstrapError.
	ErrBootstrapFailed = New("dataset bootstrap failed")
)

// API sentinel errors
var (
	// ErrAPIUnavailable indicates the dataset API could not be reached.
	ErrAPIUnavailable = New("dataset API unavailable")
	// ErrInvalidQuery indicates a metric query failed validation.
	ErrInvalidQuery = New("invalid metric query")
)

// -----------------------------------------------------------------------------
// Base Error
// -----------------------------------------------------------------------------

// TeehrError is implemented by every typed error in this package.
type TeehrError interface {
	error
	Unwrap() error
	Severity() Severity
	IsRetryable() bool
	IsUserFacing() bool
}

type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error      { return e.cause }
func (e *baseError) Severity() Severity { return e.severity }
func (e *baseError) IsRetryable() bool  { return e.retryable }
func (e *baseError) IsUserFacing() bool { return e.userFacing }

// -----------------------------------------------------------------------------
// BootstrapError
// -----------------------------------------------------------------------------

// BootstrapError reports that the dataset listing performed when the workflow
// mounts did not succeed. It is fatal for the workflow instance that raised it.
//
// Example:
//
//	err := errors.NewBootstrapError(errors.New("network error"))
//	fmt.Println(err) // "dataset bootstrap failed: network error"
type BootstrapError struct {
	baseError
}

// NewBootstrapError wraps the cause of a failed dataset listing.
func NewBootstrapError(cause error) *BootstrapError {
	return &BootstrapError{
		baseError: baseError{
			message:    ErrBootstrapFailed.Error(),
			cause:      cause,
			severity:   SeverityCritical,
			retryable:  false,
			userFacing: true,
		},
	}
}

// Is reports whether target is ErrBootstrapFailed, a *BootstrapError, or
// matches the wrapped cause.
func (e *BootstrapError) Is(target error) bool {
	if target == ErrBootstrapFailed {
		return true
	}
	if _, ok := target.(*BootstrapError); ok {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// -----------------------------------------------------------------------------
// APIError
// -----------------------------------------------------------------------------

// APIError represents a non-2xx response from the dataset API.
//
// Example:
//
//	err := errors.NewAPIError(http.MethodGet, "/datasets", 503).WithBody("upstream down")
//	fmt.Println(err) // "api error [GET /datasets, status=503]: Service Unavailable: upstream down"
type APIError struct {
	baseError
	Method     string
	Path       string
	StatusCode int
	Body       string
}

// NewAPIError creates an APIError for the given request and response status.
// Server errors and 429 are marked retryable.
func NewAPIError(method, path string, status int) *APIError {
	return &APIError{
		baseError: baseError{
			message:    http.StatusText(status),
			severity:   SeverityError,
			retryable:  status >= 500 || status == http.StatusTooManyRequests,
			userFacing: true,
		},
		Method:     method,
		Path:       path,
		StatusCode: status,
	}
}

// WithBody attaches a trimmed response body for context.
func (e *APIError) WithBody(body string) *APIError {
	body = strings.TrimSpace(body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	e.Body = body
	return e
}

// Error returns the formatted error message.
func (e *APIError) Error() string {
	prefix := fmt.Sprintf("api error [%s %s, status=%d]", e.Method, e.Path, e.StatusCode)
	if e.Body != "" {
		return fmt.Sprintf("%s: %s: %s", prefix, e.message, e.Body)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *APIError) Is(target error) bool {
	if _, ok := target.(*APIError); ok {
		return true
	}
	if target == ErrAPIUnavailable {
		return e.StatusCode >= 500
	}
	return false
}

// -----------------------------------------------------------------------------
// ValidationError
// -----------------------------------------------------------------------------

// ValidationError represents a metric query rejected before submission.
//
// Example:
//
//	err := errors.NewValidationError("'in' operator requires a list value").WithField("filters[0].value")
type ValidationError struct {
	baseError
	Field string
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField names the offending field.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error [field=%s]: %s", e.Field, e.message)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	return target == ErrInvalidQuery
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var te TeehrError
	if As(err, &te) {
		return te.IsRetryable()
	}
	return false
}

// IsUserFacing returns true if the error message is safe to display as-is.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var te TeehrError
	if As(err, &te) {
		return te.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity of err, SeverityError for foreign errors.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var te TeehrError
	if As(err, &te) {
		return te.Severity()
	}
	return SeverityError
}

// Wrap wraps an error with additional context, returning nil for nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
