package errors

import (
	"fmt"
)

// SearchError is the structured error type for docsearch. It carries a
// stable code for callers, a category and severity for logging, and the
// underlying cause for error-chain inspection.
type SearchError struct {
	// Code is the unique error code (e.g., "ERR_401_INVALID_REQUEST").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Capability, ...).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *SearchError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *SearchError) Unwrap() error {
	return e.Cause
}

// Is matches SearchErrors by code, enabling errors.Is with sentinel
// instances created via New(code, ...).
func (e *SearchError) Is(target error) bool {
	if t, ok := target.(*SearchError); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a SearchError with the given code and message.
// Category, severity, and the retryable flag are derived from the code.
func New(code string, message string, cause error) *SearchError {
	return &SearchError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Newf creates a SearchError with a formatted message and no cause.
func Newf(code string, format string, args ...any) *SearchError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Wrap creates a SearchError from an existing error.
// Returns nil when err is nil so it can wrap return values directly.
func Wrap(code string, err error) *SearchError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// InvalidRequest creates a request validation error (empty roles,
// non-positive k). Reported to the caller, never retried.
func InvalidRequest(message string) *SearchError {
	return New(ErrCodeInvalidRequest, message, nil)
}

// CapabilityUnavailable creates a capability outage error. The retriever
// degrades to lexical-only ranking instead of failing the request.
func CapabilityUnavailable(message string, cause error) *SearchError {
	return New(ErrCodeCapabilityUnavailable, message, cause)
}

// IndexCorrupt creates a fatal index error. Load-time only: the service
// refuses to serve rather than rank against a broken index.
func IndexCorrupt(message string, cause error) *SearchError {
	return New(ErrCodeIndexCorrupt, message, cause)
}

// Timeout creates a timeout error for a capability call that exceeded the
// request-scoped deadline. The request fails; it is never partially fused.
func Timeout(message string, cause error) *SearchError {
	return New(ErrCodeTimeout, message, cause)
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	if se, ok := err.(*SearchError); ok {
		return se.Severity == SeverityFatal
	}
	return false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if se, ok := err.(*SearchError); ok {
		return se.Retryable
	}
	return false
}

// GetCode extracts the error code from a SearchError.
// Returns empty string if not a SearchError.
func GetCode(err error) string {
	if se, ok := err.(*SearchError); ok {
		return se.Code
	}
	return ""
}
