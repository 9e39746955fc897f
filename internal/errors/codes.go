// Package errors provides structured error handling for docsearch.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Corpus and index errors (IO)
//   - 3XX: Capability errors (embedding, index backends)
//   - 4XX: Request validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates corpus and index file errors.
	CategoryIO Category = "IO"
	// CategoryCapability indicates errors from external capabilities.
	CategoryCapability Category = "CAPABILITY"
	// CategoryValidation indicates request validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates an unrecoverable error; the service must
	// refuse to serve rather than return undefined rankings.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed but the process can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Corpus and index errors (200-299)
	ErrCodeCorpusNotFound = "ERR_201_CORPUS_NOT_FOUND"
	ErrCodeCorpusInvalid  = "ERR_202_CORPUS_INVALID"
	ErrCodeIndexCorrupt   = "ERR_203_INDEX_CORRUPT"

	// Capability errors (300-399)
	ErrCodeCapabilityUnavailable = "ERR_301_CAPABILITY_UNAVAILABLE"
	ErrCodeTimeout               = "ERR_302_TIMEOUT"
	ErrCodeDimensionMismatch     = "ERR_303_DIMENSION_MISMATCH"

	// Validation errors (400-499)
	ErrCodeInvalidRequest = "ERR_401_INVALID_REQUEST"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts the category from the numeric span of a code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryCapability
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity from the code.
// Corrupt indices are fatal: serving against one would produce undefined
// rankings. Capability outages are warnings because search degrades to
// lexical-only rather than failing.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeIndexCorrupt, ErrCodeCorpusInvalid, ErrCodeDimensionMismatch:
		return SeverityFatal
	case ErrCodeCapabilityUnavailable:
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode reports whether an error code represents a transient
// condition. Only capability outages and timeouts qualify; invalid requests
// and corrupt indices never do.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeCapabilityUnavailable, ErrCodeTimeout:
		return true
	}
	return false
}
