package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "api.timeout_seconds")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

const (
	maxTimeoutSeconds = 600
	maxRetries        = 10
	maxResultRows     = 10000
)

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateAPI()...)
	errors = append(errors, c.validateResults()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateAPI() []ValidationError {
	var errors []ValidationError

	u, err := url.Parse(c.API.BaseURL)
	switch {
	case c.API.BaseURL == "":
		errors = append(errors, ValidationError{
			Field:   "api.base_url",
			Value:   c.API.BaseURL,
			Message: "is required",
		})
	case err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "":
		errors = append(errors, ValidationError{
			Field:   "api.base_url",
			Value:   c.API.BaseURL,
			Message: "must be an absolute http or https URL",
		})
	}

	if c.API.TimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "api.timeout_seconds",
			Value:   c.API.TimeoutSeconds,
			Message: "must be positive",
		})
	} else if c.API.TimeoutSeconds > maxTimeoutSeconds {
		errors = append(errors, ValidationError{
			Field:   "api.timeout_seconds",
			Value:   c.API.TimeoutSeconds,
			Message: fmt.Sprintf("exceeds maximum of %d", maxTimeoutSeconds),
		})
	}

	if c.API.MaxRetries < 0 || c.API.MaxRetries > maxRetries {
		errors = append(errors, ValidationError{
			Field:   "api.max_retries",
			Value:   c.API.MaxRetries,
			Message: fmt.Sprintf("must be between 0 and %d", maxRetries),
		})
	}

	return errors
}

func (c *Config) validateResults() []ValidationError {
	if c.Results.MaxRows <= 0 || c.Results.MaxRows > maxResultRows {
		return []ValidationError{{
			Field:   "results.max_rows",
			Value:   c.Results.MaxRows,
			Message: fmt.Sprintf("must be between 1 and %d", maxResultRows),
		}}
	}
	return nil
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// 0 disables rotation
	const maxLogSizeMB = 1000
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("must be between 0 and %d", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
