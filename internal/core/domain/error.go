package domain

import (
	"time"

	"github.com/google/uuid"
)

// Error represents one observed failure. It is created once per detected
// failure and never mutated afterwards.
type Error struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Type       ErrorType      `json:"type"`
	Category   ErrorCategory  `json:"category"`
	Message    string         `json:"message"`
	Source     string         `json:"source"`
	Context    map[string]any `json:"context,omitempty"`
	StackTrace string         `json:"stack_trace,omitempty"`
	ExitCode   *int           `json:"exit_code,omitempty"`
	File       string         `json:"file,omitempty"`
	Line       int            `json:"line,omitempty"`
	Suggestion string         `json:"suggestion,omitempty"`
}

// NewError builds an Error with a fresh id and timestamp.
func NewError(errType ErrorType, category ErrorCategory, message, source string) *Error {
	return &Error{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Type:      errType,
		Category:  category,
		Message:   message,
		Source:    source,
	}
}

type ErrorCategory string

const (
	CategoryTransient ErrorCategory = "transient"
	CategoryPermanent ErrorCategory = "permanent"
	CategoryAmbiguous ErrorCategory = "ambiguous"
)

type ErrorType string

const (
	ErrTimeout             ErrorType = "timeout"
	ErrRateLimited         ErrorType = "rate_limited"
	ErrNetwork             ErrorType = "network"
	ErrResourceUnavailable ErrorType = "resource_unavailable"
	ErrSubprocessTimeout   ErrorType = "subprocess_timeout"

	ErrSyntax            ErrorType = "syntax_error"
	ErrIndentation       ErrorType = "indentation_error"
	ErrImport            ErrorType = "import_error"
	ErrName              ErrorType = "name_error"
	ErrTypeMismatch      ErrorType = "type_error"
	ErrAttribute         ErrorType = "attribute_error"
	ErrKey               ErrorType = "key_error"
	ErrValue             ErrorType = "value_error"
	ErrFileNotFound      ErrorType = "file_not_found"
	ErrPermissionDenied  ErrorType = "permission_denied"
	ErrMissingDependency ErrorType = "missing_dependency"
	ErrUndefinedSymbol   ErrorType = "undefined_symbol"
	ErrTestFailure       ErrorType = "test_failure"
	ErrCodeQuality       ErrorType = "code_quality"
	ErrDependency        ErrorType = "dependency"

	ErrUnknown ErrorType = "unknown"
)
