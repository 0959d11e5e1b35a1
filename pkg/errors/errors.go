package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies an error category independently of its message
type ErrorCode string

const (
	// General errors
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternal      ErrorCode = "INTERNAL"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Fixture errors
	ErrPrecondition ErrorCode = "PRECONDITION"
	ErrReclaim      ErrorCode = "RECLAIM"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Engine errors
	ErrBuilderNotFound ErrorCode = "BUILDER_NOT_FOUND"
	ErrThemeNotFound   ErrorCode = "THEME_NOT_FOUND"
	ErrThemeInvalid    ErrorCode = "THEME_INVALID"
	ErrSourceRead      ErrorCode = "SOURCE_READ"
	ErrDoctreeRead     ErrorCode = "DOCTREE_READ"
	ErrDoctreeWrite    ErrorCode = "DOCTREE_WRITE"
	ErrBuildWrite      ErrorCode = "BUILD_WRITE"
	ErrWarningAsError  ErrorCode = "WARNING_AS_ERROR"

	// FileSystem errors
	ErrDirCreate ErrorCode = "DIR_CREATE"
	ErrDirCopy   ErrorCode = "DIR_COPY"
)

// DocfixError is a structured error carrying a stable code and details
type DocfixError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *DocfixError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *DocfixError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a DocfixError with the same code
func (e *DocfixError) Is(target error) bool {
	var targetErr *DocfixError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new DocfixError with the given code and message
func New(code ErrorCode, message string) *DocfixError {
	return &DocfixError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new DocfixError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *DocfixError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps err with a code and message. A nil err yields nil.
func Wrap(err error, code ErrorCode, message string) *DocfixError {
	if err == nil {
		return nil
	}
	e := New(code, message)
	e.Wrapped = err
	return e
}

// Wrapf wraps err with a code and a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *DocfixError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WithDetail adds a detail to the error
func (e *DocfixError) WithDetail(key string, value interface{}) *DocfixError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if any error in err's chain has the given code
func IsErrorCode(err error, code ErrorCode) bool {
	var docfixErr *DocfixError
	if errors.As(err, &docfixErr) {
		return docfixErr.Code == code
	}
	return false
}

// GetErrorCode returns the code of err, or ErrUnknown if it is not a DocfixError
func GetErrorCode(err error) ErrorCode {
	var docfixErr *DocfixError
	if errors.As(err, &docfixErr) {
		return docfixErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a DocfixError
func GetErrorDetails(err error) map[string]interface{} {
	var docfixErr *DocfixError
	if errors.As(err, &docfixErr) {
		return docfixErr.Details
	}
	return nil
}

// Message returns the message of a DocfixError without its code prefix, or
// err.Error() for any other error
func Message(err error) string {
	var docfixErr *DocfixError
	if errors.As(err, &docfixErr) {
		return docfixErr.Message
	}
	return err.Error()
}
