// Package errors provides a lightweight structured error type (EneratorError)
// for category-based classification in the CLI and the preview server.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// ErrorCategory represents the category of an enerator error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Page module resolution and rendering
	CategoryModuleNotFound ErrorCategory = "module_not_found"
	CategoryInvalidModule  ErrorCategory = "invalid_module"
	CategoryRender         ErrorCategory = "render"

	// Persistence
	CategorySitemap    ErrorCategory = "sitemap"
	CategoryFileSystem ErrorCategory = "filesystem"

	// HTTP-level lookups that are not crashes
	CategoryNotFound ErrorCategory = "not_found"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// EneratorError is a structured error with category, severity, and context
type EneratorError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for EneratorError
type ContextFields map[string]any

// Error implements the error interface
func (e *EneratorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *EneratorError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *EneratorError) WithContext(key string, value any) *EneratorError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new EneratorError
func New(category ErrorCategory, severity ErrorSeverity, message string) *EneratorError {
	return &EneratorError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new EneratorError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *EneratorError {
	return &EneratorError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// As returns the outermost EneratorError in err's chain.
func As(err error) (*EneratorError, bool) {
	var ee *EneratorError
	if stdErrors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}

// IsCategory checks if an error (or anything it wraps) belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	var ee *EneratorError
	for err != nil {
		if !stdErrors.As(err, &ee) {
			return false
		}
		if ee.Category == category {
			return true
		}
		err = ee.Cause
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not an EneratorError
func GetCategory(err error) ErrorCategory {
	if ee, ok := As(err); ok {
		return ee.Category
	}
	return CategoryInternal
}
