package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Code represents an error code for categorization
type Code string

// FailError is the coded error type returned by the client.
type FailError struct {
	Code      Code                   `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

// Error implements the error interface
func (e *FailError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause error
func (e *FailError) Unwrap() error {
	return e.Cause
}

// Is matches another *FailError with the same code
func (e *FailError) Is(target error) bool {
	if t, ok := target.(*FailError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext adds context information to the error
func (e *FailError) WithContext(key string, value interface{}) *FailError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *FailError) WithDetails(details string) *FailError {
	e.Details = details
	return e
}

// New creates a new FailError
func New(code Code, message string) *FailError {
	return &FailError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Newf creates a new FailError with a formatted message
func Newf(code Code, format string, args ...interface{}) *FailError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a FailError
func Wrap(cause error, code Code, message string) *FailError {
	e := New(code, message)
	e.Cause = cause
	return e
}

// CodeOf returns the code of the first FailError in err's chain, or "" when there is none.
func CodeOf(err error) Code {
	var fe *FailError
	if stderrors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// IsCode reports whether err's chain contains a FailError with the given code.
func IsCode(err error, code Code) bool {
	return err != nil && stderrors.Is(err, &FailError{Code: code})
}
