package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for Houdinis framework errors.
type ErrorCode string

// Option system error codes
const (
	OPTION_VALIDATION_FAILED ErrorCode = "OPTION_VALIDATION_FAILED"
	OPTION_NOT_FOUND         ErrorCode = "OPTION_NOT_FOUND"
	OPTION_REQUIRED_UNSET    ErrorCode = "OPTION_REQUIRED_UNSET"
)

// Module registry error codes
const (
	MODULE_NOT_FOUND   ErrorCode = "MODULE_NOT_FOUND"
	MODULE_DUPLICATE   ErrorCode = "MODULE_DUPLICATE"
	MODULE_LOAD_FAILED ErrorCode = "MODULE_LOAD_FAILED"
	MODULE_NONE_ACTIVE ErrorCode = "MODULE_NONE_ACTIVE"
	MODULE_RUN_FAILED  ErrorCode = "MODULE_RUN_FAILED"
	REGISTRY_EMPTY     ErrorCode = "REGISTRY_EMPTY"
)

// Backend error codes
const (
	BACKEND_UNAVAILABLE       ErrorCode = "BACKEND_UNAVAILABLE"
	BACKEND_AUTH_FAILED       ErrorCode = "BACKEND_AUTH_FAILED"
	BACKEND_CAPACITY_EXCEEDED ErrorCode = "BACKEND_CAPACITY_EXCEEDED"
	JOB_TIMED_OUT             ErrorCode = "JOB_TIMED_OUT"
	JOB_NOT_FOUND             ErrorCode = "JOB_NOT_FOUND"
	SIMULATION_FAILED         ErrorCode = "SIMULATION_FAILED"
)

// Credential error codes
const (
	CREDENTIAL_NOT_FOUND ErrorCode = "CREDENTIAL_NOT_FOUND"
	CREDENTIAL_INVALID   ErrorCode = "CREDENTIAL_INVALID"
	CREDENTIAL_DECRYPT   ErrorCode = "CREDENTIAL_DECRYPT_FAILED"
)

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Console error codes
const (
	COMMAND_UNKNOWN ErrorCode = "COMMAND_UNKNOWN"
	COMMAND_USAGE   ErrorCode = "COMMAND_USAGE"
)

// HoudinisError represents a structured error with error code, message, and
// optional cause. It supports error wrapping and retryability hints for
// error handling logic.
type HoudinisError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *HoudinisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *HoudinisError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is a HoudinisError with the same Code.
func (e *HoudinisError) Is(target error) bool {
	var herr *HoudinisError
	if errors.As(target, &herr) {
		return e.Code == herr.Code
	}
	return false
}

// NewError creates a new non-retryable HoudinisError with the given code and message.
func NewError(code ErrorCode, message string) *HoudinisError {
	return &HoudinisError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a new retryable HoudinisError with the given code
// and message. Use this for transient errors that may succeed on retry
// (e.g., network timeouts, queued-provider hiccups).
func NewRetryableError(code ErrorCode, message string) *HoudinisError {
	return &HoudinisError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// WrapError creates a new non-retryable HoudinisError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *HoudinisError {
	return &HoudinisError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf extracts the ErrorCode from err if it is (or wraps) a HoudinisError.
// Returns an empty code and false otherwise.
func CodeOf(err error) (ErrorCode, bool) {
	var herr *HoudinisError
	if errors.As(err, &herr) {
		return herr.Code, true
	}
	return "", false
}

// IsRetryable determines if an error is transient and may succeed on retry.
func IsRetryable(err error) bool {
	var herr *HoudinisError
	if errors.As(err, &herr) {
		return herr.Retryable
	}
	return false
}
