package errors

import (
	"errors"
	"fmt"
)

// ErrorType identifies the kind of a domain error
type ErrorType string

const (
	// ErrorTypeValidation indicates malformed input
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeNotFound indicates an unknown node or resource
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeSystem indicates a system level failure
	ErrorTypeSystem ErrorType = "SYSTEM"

	// ErrorTypeTimeout indicates a command did not finish in time
	ErrorTypeTimeout ErrorType = "TIMEOUT"

	// ErrorTypePortNotMapped indicates a VLAN was requested on an unregistered base port
	ErrorTypePortNotMapped ErrorType = "PORT_NOT_MAPPED"

	// ErrorTypeDuplicatePort indicates the logical port is already mapped
	ErrorTypeDuplicatePort ErrorType = "DUPLICATE_PORT"

	// ErrorTypeDuplicateInterface indicates the real interface already backs another port
	ErrorTypeDuplicateInterface ErrorType = "DUPLICATE_INTERFACE"

	// ErrorTypeUnknownPort indicates an operation on an unmapped logical port
	ErrorTypeUnknownPort ErrorType = "UNKNOWN_PORT"

	// ErrorTypeCommandFailed indicates the networking command reported failure
	ErrorTypeCommandFailed ErrorType = "COMMAND_FAILED"

	// ErrorTypeRegistrationFailed indicates the kernel change succeeded but the registry
	// rejected it and the change was rolled back
	ErrorTypeRegistrationFailed ErrorType = "REGISTRATION_FAILED"
)

// Sentinels for use with errors.Is. Matching is by Type only.
var (
	ErrValidation         = &DomainError{Type: ErrorTypeValidation}
	ErrNotFound           = &DomainError{Type: ErrorTypeNotFound}
	ErrTimeout            = &DomainError{Type: ErrorTypeTimeout}
	ErrPortNotMapped      = &DomainError{Type: ErrorTypePortNotMapped}
	ErrDuplicatePort      = &DomainError{Type: ErrorTypeDuplicatePort}
	ErrDuplicateInterface = &DomainError{Type: ErrorTypeDuplicateInterface}
	ErrUnknownPort        = &DomainError{Type: ErrorTypeUnknownPort}
	ErrCommandFailed      = &DomainError{Type: ErrorTypeCommandFailed}
	ErrRegistrationFailed = &DomainError{Type: ErrorTypeRegistrationFailed}
)

// CommandFailure holds the diagnostics of a failed networking command
type CommandFailure struct {
	Command    string `json:"command"`
	ExitStatus int    `json:"exit_status"`
	Stderr     string `json:"stderr"`
	Kind       string `json:"kind"`
}

// DomainError is the structured error returned by every operation
type DomainError struct {
	Type    ErrorType
	Message string
	Cause   error

	// Command is set for COMMAND_FAILED errors, and for REGISTRATION_FAILED when the
	// compensating delete itself failed.
	Command *CommandFailure

	// RolledBack reports whether the compensating delete succeeded.
	RolledBack bool
}

// Error implements the error interface
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if e.Command != nil && e.Command.Stderr != "" {
		msg = fmt.Sprintf("%s (exit %d, stderr: %s)", msg, e.Command.ExitStatus, e.Command.Stderr)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is compares domain errors by type
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// Constructors

// NewValidationError creates a validation error
func NewValidationError(message string, cause error) *DomainError {
	return &DomainError{
		Type:    ErrorTypeValidation,
		Message: message,
		Cause:   cause,
	}
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(message string) *DomainError {
	return &DomainError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewSystemError creates a system error
func NewSystemError(message string, cause error) *DomainError {
	return &DomainError{
		Type:    ErrorTypeSystem,
		Message: message,
		Cause:   cause,
	}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(message string) *DomainError {
	return &DomainError{
		Type:    ErrorTypeTimeout,
		Message: message,
	}
}

// NewPortNotMappedError creates a PORT_NOT_MAPPED error
func NewPortNotMappedError(port string) *DomainError {
	return &DomainError{
		Type:    ErrorTypePortNotMapped,
		Message: fmt.Sprintf("base port %q is not mapped", port),
	}
}

// NewDuplicatePortError creates a DUPLICATE_PORT error
func NewDuplicatePortError(port string) *DomainError {
	return &DomainError{
		Type:    ErrorTypeDuplicatePort,
		Message: fmt.Sprintf("logical port %q is already mapped", port),
	}
}

// NewDuplicateInterfaceError creates a DUPLICATE_INTERFACE error
func NewDuplicateInterfaceError(realName, owner string) *DomainError {
	return &DomainError{
		Type:    ErrorTypeDuplicateInterface,
		Message: fmt.Sprintf("interface %q is already mapped to logical port %q", realName, owner),
	}
}

// NewUnknownPortError creates an UNKNOWN_PORT error
func NewUnknownPortError(port string) *DomainError {
	return &DomainError{
		Type:    ErrorTypeUnknownPort,
		Message: fmt.Sprintf("logical port %q is not mapped", port),
	}
}

// NewCommandFailedError creates a COMMAND_FAILED error carrying the command diagnostics
func NewCommandFailedError(message string, failure *CommandFailure, cause error) *DomainError {
	return &DomainError{
		Type:    ErrorTypeCommandFailed,
		Message: message,
		Cause:   cause,
		Command: failure,
	}
}

// NewRegistrationFailedError creates a REGISTRATION_FAILED error
func NewRegistrationFailedError(message string, cause error, rolledBack bool) *DomainError {
	return &DomainError{
		Type:       ErrorTypeRegistrationFailed,
		Message:    message,
		Cause:      cause,
		RolledBack: rolledBack,
	}
}

// Type check helpers

// TypeOf returns the domain error type of err, or "" when err is not a DomainError
func TypeOf(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// IsValidationError reports whether err is a validation error
func IsValidationError(err error) bool {
	return TypeOf(err) == ErrorTypeValidation
}

// IsNotFoundError reports whether err is a not-found error
func IsNotFoundError(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsTimeoutError reports whether err is a timeout error
func IsTimeoutError(err error) bool {
	return TypeOf(err) == ErrorTypeTimeout
}

// IsUnknownPortError reports whether err is an UNKNOWN_PORT error
func IsUnknownPortError(err error) bool {
	return TypeOf(err) == ErrorTypeUnknownPort
}

// IsCommandFailedError reports whether err is a COMMAND_FAILED error
func IsCommandFailedError(err error) bool {
	return TypeOf(err) == ErrorTypeCommandFailed
}

// IsDuplicateError reports whether err is DUPLICATE_PORT or DUPLICATE_INTERFACE
func IsDuplicateError(err error) bool {
	t := TypeOf(err)
	return t == ErrorTypeDuplicatePort || t == ErrorTypeDuplicateInterface
}
