package errors

import (
	"errors"
	"fmt"
)

// ErrNotInstalled is returned when an operation requires a completed
// installation.
var ErrNotInstalled = errors.New("not installed")

// Error is the base interface for all custom errors in the setup tool.
// It extends the standard error interface with additional context.
type Error interface {
	error
	// Code returns the error code
	Code() string
	// Message returns the human-readable error message
	Message() string
	// Unwrap returns the underlying cause
	Unwrap() error
}

// BaseError provides a foundation for all typed errors.
type BaseError struct {
	code    string
	message string
	cause   error
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *BaseError) Code() string {
	return e.code
}

// Message returns the error message.
func (e *BaseError) Message() string {
	return e.message
}

// Unwrap returns the underlying cause.
func (e *BaseError) Unwrap() error {
	return e.cause
}

// ValidationError represents an input validation error.
type ValidationError struct {
	*BaseError
	Field string
	Value interface{}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		BaseError: &BaseError{
			code:    CodeValidation,
			message: message,
		},
		Field: field,
		Value: value,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.message)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

// ConfigError represents a configuration path or artifact error.
// Path carries the filesystem path the error refers to, when known.
type ConfigError struct {
	*BaseError
	Path string
}

// NewConfigError creates a new configuration error.
func NewConfigError(path, message string, cause error) *ConfigError {
	return &ConfigError{
		BaseError: &BaseError{
			code:    CodeConfigError,
			message: message,
			cause:   cause,
		},
		Path: path,
	}
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Path != "" {
		if e.cause != nil {
			return fmt.Sprintf("config error: %s: %s: %v", e.Path, e.message, e.cause)
		}
		return fmt.Sprintf("config error: %s: %s", e.Path, e.message)
	}
	return fmt.Sprintf("config error: %s", e.BaseError.Error())
}

// InstallError wraps any failure raised during the installation sequence.
// The original message is always preserved in the cause chain.
type InstallError struct {
	*BaseError
}

// NewInstallError creates a new installation error wrapping cause.
func NewInstallError(cause error) *InstallError {
	return &InstallError{
		BaseError: &BaseError{
			code:    CodeInstallError,
			message: "installation failed",
			cause:   cause,
		},
	}
}

// RepairError wraps any failure raised during the repair sequence.
type RepairError struct {
	*BaseError
}

// NewRepairError creates a new repair error wrapping cause.
func NewRepairError(cause error) *RepairError {
	return &RepairError{
		BaseError: &BaseError{
			code:    CodeRepairError,
			message: "repair failed",
			cause:   cause,
		},
	}
}

// InternalError represents an unexpected failure with no more
// specific type. Wrap produces it for plain errors.
type InternalError struct {
	*BaseError
}

// Wrap wraps an error with additional context.
// If the error is already one of our custom types, it preserves the code
// and adds the cause chain. Otherwise, it creates an InternalError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	if e, ok := err.(Error); ok {
		return &BaseError{
			code:    e.Code(),
			message: message,
			cause:   err,
		}
	}

	return &InternalError{
		BaseError: &BaseError{
			code:    CodeInternal,
			message: message,
			cause:   err,
		},
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}

// New creates a new error with a message.
func New(message string) error {
	return &BaseError{
		code:    CodeInternal,
		message: message,
	}
}

// Newf creates a new error with a formatted message.
func Newf(format string, args ...interface{}) error {
	return New(fmt.Sprintf(format, args...))
}
