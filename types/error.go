package types

import "fmt"

// ErrorCode tags a structured error with a stable, machine-readable cause.
type ErrorCode string

// Routing and configuration error codes.
const (
	ErrInvalidTask   ErrorCode = "INVALID_TASK"
	ErrInvalidCheck  ErrorCode = "INVALID_CHECK"
	ErrInvalidGraph  ErrorCode = "INVALID_GRAPH"
	ErrUnknownKind   ErrorCode = "UNKNOWN_WORKFLOW_KIND"
	ErrDuplicateName ErrorCode = "DUPLICATE_NAME"
)

// Collaborator error codes. These are the failures a workflow step records
// as an error entry and routes through its "error" edge.
const (
	ErrGenerate ErrorCode = "GENERATE_FAILED"
	ErrMemory   ErrorCode = "MEMORY_FAILED"
	ErrTracker  ErrorCode = "TRACKER_FAILED"
	ErrTimeout  ErrorCode = "TIMEOUT"
)

// Error is the structured error used across the module: a code, a message,
// an optional cause, and a retryable hint for branch functions.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsRetryable checks if an error carries a retryable hint.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// CodeOf extracts the error code from an error, or "" for foreign errors.
func CodeOf(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
