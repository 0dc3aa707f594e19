package errors

import (
	"errors"
)

// As is a wrapper around errors.As that works with our Error type
func As(err error, target **Error) bool {
	return errors.As(err, target)
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// GetCode extracts the error code from an error
func GetCode(err error) Code {
	if err == nil {
		return CodeOK
	}

	var customErr *Error
	if errors.As(err, &customErr) {
		return customErr.Code
	}

	return CodeRepoError
}

// GetMeta extracts metadata from an error
func GetMeta(err error) map[string]interface{} {
	if err == nil {
		return nil
	}

	var customErr *Error
	if errors.As(err, &customErr) {
		return customErr.Meta
	}

	return nil
}

// GetMessage extracts the user-friendly message from an error
func GetMessage(err error) string {
	if err == nil {
		return ""
	}

	var customErr *Error
	if errors.As(err, &customErr) {
		return customErr.Message
	}

	return err.Error()
}

// Type checking helpers

// IsBadInput checks if an error is a bad input error
func IsBadInput(err error) bool {
	return GetCode(err) == CodeBadInput
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return GetCode(err) == CodeNotFound
}

// IsInsufficientResource checks if an error is an insufficient resource error
func IsInsufficientResource(err error) bool {
	return GetCode(err) == CodeInsufficientResource
}

// IsInvalidTarget checks if an error is an invalid target error
func IsInvalidTarget(err error) bool {
	return GetCode(err) == CodeInvalidTarget
}

// IsRuleViolation checks if an error is a rule violation error
func IsRuleViolation(err error) bool {
	return GetCode(err) == CodeRuleViolation
}

// IsConflictState checks if an error is a conflict state error
func IsConflictState(err error) bool {
	return GetCode(err) == CodeConflictState
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return GetCode(err) == CodeTimeout
}

// IsRepoError checks if an error is a repository error
func IsRepoError(err error) bool {
	return GetCode(err) == CodeRepoError
}

// IsTurnRecoverable reports whether the error should surface as a failed
// result rather than abort the turn. Per policy, only Timeout, ConflictState
// and RepoError escalate past the skill layer.
func IsTurnRecoverable(err error) bool {
	switch GetCode(err) {
	case CodeBadInput, CodeNotFound, CodeInsufficientResource, CodeInvalidTarget, CodeRuleViolation:
		return true
	default:
		return false
	}
}
