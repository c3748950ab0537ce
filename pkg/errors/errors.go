// Package errors provides structured, typed errors for warpconf.
//
// Every error raised while resolving or validating configuration is a
// configuration-kind error: none of them are retryable, and callers map them
// to a non-zero exit status. The ErrorType tells callers which rule fired
// without parsing the message.
//
//	err := errors.New(errors.ErrorTypeWhitelist, "override 'timeout' not allowed").
//	    WithDetail("key", "timeout")
//
//	if errors.IsType(err, errors.ErrorTypeWhitelist) {
//	    // report the offending key
//	}
package errors

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"sort"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents internal errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeConfig represents configuration load/parse/shape errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeMissingField represents a required configuration field that is unset
	ErrorTypeMissingField ErrorType = "missing_field"
	// ErrorTypeNotFound represents an unknown connector id
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeOverride represents a nested params/params_override table in an override
	ErrorTypeOverride ErrorType = "override"
	// ErrorTypeWhitelist represents an override key outside the connector whitelist
	ErrorTypeWhitelist ErrorType = "whitelist"
	// ErrorTypeLint represents aggregated connector definition violations
	ErrorTypeLint ErrorType = "lint"
	// ErrorTypeValidation represents a failed validation report
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeCapability represents a connector kind with no registered checker
	ErrorTypeCapability ErrorType = "capability"
	// ErrorTypeFile represents file operation errors
	ErrorTypeFile ErrorType = "file"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	// Caller is "file:line" of the New/Wrap call that created the error
	Caller string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Format prints the details and the caller with %+v, one per line.
func (e *Error) Format(s fmt.State, verb rune) {
	switch {
	case verb == 'v' && s.Flag('+'):
		_, _ = io.WriteString(s, e.Error())
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(s, "\n  %s: %v", k, e.Details[k])
		}
		if e.Caller != "" {
			fmt.Fprintf(s, "\n  at %s", e.Caller)
		}
	case verb == 'v' || verb == 's':
		_, _ = io.WriteString(s, e.Error())
	case verb == 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Detail returns the detail stored under key.
func (e *Error) Detail(key string) (interface{}, bool) {
	v, ok := e.Details[key]
	return v, ok
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{Type: errType, Message: message, Caller: caller(2)}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...), Caller: caller(2)}
}

// Wrap wraps err with a type and message. Wrapping one of our errors keeps
// the innermost caller. A nil err gives nil.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}
	at := caller(2)
	var inner *Error
	if errors.As(err, &inner) && inner.Caller != "" {
		at = inner.Caller
	}
	return &Error{Type: errType, Message: message, Cause: err, Caller: at}
}

// IsType checks if the outermost structured error in the chain is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// As is a convenience for errors.As on *Error.
func As(err error) (*Error, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return nil, false
	}
	return e, true
}

func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}
