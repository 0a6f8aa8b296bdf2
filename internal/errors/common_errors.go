package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeIO covers missing, unreadable or unwritable files.
	ErrTypeIO ErrorType = "IO"
	// ErrTypeSchema covers required columns absent from a table.
	ErrTypeSchema ErrorType = "SCHEMA"
	// ErrTypeValue covers values that cannot be coerced, such as an invalid Year/Month pair.
	ErrTypeValue ErrorType = "VALUE"
	// ErrTypeMissingColumn is the non-fatal optional column case. Callers log and skip.
	ErrTypeMissingColumn ErrorType = "MISSING_COLUMN"
	ErrTypeConfig        ErrorType = "CONFIG"
	ErrTypeNotFound      ErrorType = "NOT_FOUND"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewIOError creates a file system error
func NewIOError(message string, cause error) *AppError {
	return NewAppError(ErrTypeIO, message, cause)
}

// NewSchemaError reports columns a consumer requires but the table lacks.
func NewSchemaError(operation string, missing ...string) *AppError {
	return NewAppError(ErrTypeSchema, fmt.Sprintf("%s: missing required columns %v", operation, missing), nil).
		WithContext("missing", missing)
}

// NewValueError creates a value coercion error
func NewValueError(message string, cause error) *AppError {
	return NewAppError(ErrTypeValue, message, cause)
}

// NewMissingColumnError creates the non-fatal optional column error
func NewMissingColumnError(column string) *AppError {
	return NewAppError(ErrTypeMissingColumn, fmt.Sprintf("column '%s' not in table", column), nil).
		WithContext("column", column)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// IsType reports whether err wraps an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// TypeOf returns the AppError type wrapped by err, or "" when there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}
