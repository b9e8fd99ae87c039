// Package errors provides the error taxonomy used across mds-pull.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeUsage indicates a missing or conflicting command-line combination
	TypeUsage Type = "USAGE_ERROR"

	// TypeParsing indicates malformed date/time or data text
	TypeParsing Type = "PARSING_ERROR"

	// TypeConfig indicates missing or invalid configuration, including storage credentials
	TypeConfig Type = "CONFIG_ERROR"

	// TypeStorage indicates a filesystem write or object upload failure
	TypeStorage Type = "STORAGE_ERROR"

	// TypeNetwork indicates a failed registry or provider request
	TypeNetwork Type = "NETWORK_ERROR"
)

// Error represents a domain error with context
type Error struct {
	Type    Type           `json:"type"`
	Message string         `json:"message"`
	Cause   error          `json:"-"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func New(errType Type, message string) *Error {
	return &Error{Type: errType, Message: message}
}

func Newf(errType Type, format string, args ...any) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...)}
}

func Wrap(errType Type, message string, cause error) *Error {
	return &Error{Type: errType, Message: message, Cause: cause}
}

// IsType reports whether any error in err's chain is an *Error of type t.
func IsType(err error, t Type) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}

func Usage(message string) *Error {
	return New(TypeUsage, message)
}

func Parsing(message string, cause error) *Error {
	return Wrap(TypeParsing, message, cause)
}

func Config(message string, cause error) *Error {
	return Wrap(TypeConfig, message, cause)
}

func Storage(message string, cause error) *Error {
	return Wrap(TypeStorage, message, cause)
}

func Network(message string, cause error) *Error {
	return Wrap(TypeNetwork, message, cause)
}
