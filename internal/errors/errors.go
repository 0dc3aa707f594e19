package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with code, message, and metadata
type Error struct {
	Code    Code                   `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the target error is of the same type
func (e *Error) Is(target error) bool {
	var targetErr *Error
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// WithMeta adds metadata to the error
func (e *Error) WithMeta(key string, value interface{}) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]interface{})
	}
	e.Meta[key] = value
	return e
}

// WithMetaMap adds multiple metadata entries
func (e *Error) WithMetaMap(meta map[string]interface{}) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]interface{})
	}
	for k, v := range meta {
		e.Meta[k] = v
	}
	return e
}

// New creates a new error with the given code and message
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new error with a formatted message
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error, preserving its code if it's an Error
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Code:    existingErr.Code,
			Message: message,
			Cause:   err,
			Meta:    existingErr.Meta,
		}
	}

	return &Error{
		Code:    CodeRepoError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with a formatted message
func Wrapf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WrapWithCode wraps an error with a specific code
func WrapWithCode(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}

	var existingErr *Error
	meta := make(map[string]interface{})
	if errors.As(err, &existingErr) && existingErr.Meta != nil {
		for k, v := range existingErr.Meta {
			meta[k] = v
		}
	}

	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
		Meta:    meta,
	}
}

// WrapWithCodef wraps an error with a specific code and formatted message
func WrapWithCodef(err error, code Code, format string, args ...interface{}) *Error {
	return WrapWithCode(err, code, fmt.Sprintf(format, args...))
}

// Constructor functions for common error types

// BadInput creates a bad input error
func BadInput(message string) *Error {
	return New(CodeBadInput, message)
}

// BadInputf creates a bad input error with formatted message
func BadInputf(format string, args ...interface{}) *Error {
	return Newf(CodeBadInput, format, args...)
}

// NotFound creates a not found error
func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

// NotFoundf creates a not found error with formatted message
func NotFoundf(format string, args ...interface{}) *Error {
	return Newf(CodeNotFound, format, args...)
}

// InsufficientResource creates an insufficient resource error
func InsufficientResource(message string) *Error {
	return New(CodeInsufficientResource, message)
}

// InsufficientResourcef creates an insufficient resource error with formatted message
func InsufficientResourcef(format string, args ...interface{}) *Error {
	return Newf(CodeInsufficientResource, format, args...)
}

// InvalidTarget creates an invalid target error
func InvalidTarget(message string) *Error {
	return New(CodeInvalidTarget, message)
}

// InvalidTargetf creates an invalid target error with formatted message
func InvalidTargetf(format string, args ...interface{}) *Error {
	return Newf(CodeInvalidTarget, format, args...)
}

// RuleViolation creates a rule violation error
func RuleViolation(message string) *Error {
	return New(CodeRuleViolation, message)
}

// RuleViolationf creates a rule violation error with formatted message
func RuleViolationf(format string, args ...interface{}) *Error {
	return Newf(CodeRuleViolation, format, args...)
}

// ConflictState creates a conflict state error
func ConflictState(message string) *Error {
	return New(CodeConflictState, message)
}

// ConflictStatef creates a conflict state error with formatted message
func ConflictStatef(format string, args ...interface{}) *Error {
	return Newf(CodeConflictState, format, args...)
}

// Timeout creates a timeout error
func Timeout(message string) *Error {
	return New(CodeTimeout, message)
}

// Timeoutf creates a timeout error with formatted message
func Timeoutf(format string, args ...interface{}) *Error {
	return Newf(CodeTimeout, format, args...)
}

// RepoError creates a repository error
func RepoError(message string) *Error {
	return New(CodeRepoError, message)
}

// RepoErrorf creates a repository error with formatted message
func RepoErrorf(format string, args ...interface{}) *Error {
	return Newf(CodeRepoError, format, args...)
}
