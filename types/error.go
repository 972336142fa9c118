package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

// Build error codes
const (
	ErrBuild            ErrorCode = "BUILD_ERROR"
	ErrUnknownNode      ErrorCode = "UNKNOWN_NODE"
	ErrUnknownBlockType ErrorCode = "UNKNOWN_BLOCK_TYPE"
	ErrEmptyTypeID      ErrorCode = "EMPTY_TYPE_ID"
)

// Block error codes
const (
	ErrBlock             ErrorCode = "BLOCK_ERROR"
	ErrFileNotFound      ErrorCode = "FILE_NOT_FOUND"
	ErrIO                ErrorCode = "IO"
	ErrInputMissing      ErrorCode = "INPUT_MISSING"
	ErrInputTypeMismatch ErrorCode = "INPUT_TYPE_MISMATCH"
)

// Runtime error codes
const (
	ErrNoEntryNode         ErrorCode = "NO_ENTRY_NODE"
	ErrEntryNotRegistered  ErrorCode = "ENTRY_NOT_REGISTERED"
	ErrNoSinkNode          ErrorCode = "NO_SINK_NODE"
	ErrChannelDisconnected ErrorCode = "CHANNEL_DISCONNECTED"
	ErrTickTimeout         ErrorCode = "TICK_TIMEOUT"
	ErrCancelled           ErrorCode = "CANCELLED"
	ErrInvalidRunState     ErrorCode = "INVALID_RUN_STATE"
)

// ErrorCategory groups error codes by the layer that raised them.
type ErrorCategory string

const (
	CategoryBuild   ErrorCategory = "build"
	CategoryBlock   ErrorCategory = "block"
	CategoryRuntime ErrorCategory = "runtime"
)

// Category reports which layer an error code belongs to.
func (c ErrorCode) Category() ErrorCategory {
	switch c {
	case ErrBuild, ErrUnknownNode, ErrUnknownBlockType, ErrEmptyTypeID:
		return CategoryBuild
	case ErrNoEntryNode, ErrEntryNotRegistered, ErrNoSinkNode,
		ErrChannelDisconnected, ErrTickTimeout, ErrCancelled, ErrInvalidRunState:
		return CategoryRuntime
	default:
		return CategoryBlock
	}
}

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Node      string    `json:"node,omitempty"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Node != "" {
		msg = fmt.Sprintf("node %s: %s", e.Node, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates a new Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithNode records the node the error was raised for.
func (e *Error) WithNode(node string) *Error {
	e.Node = node
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// InputTypeMismatch reports a block receiving an input shape it cannot handle.
func InputTypeMismatch(block string, expected string, got ValueKind) *Error {
	return Errorf(ErrInputTypeMismatch, "%s expected %s input, got %s", block, expected, got)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsBuildError reports whether err was raised while building a definition or block.
func IsBuildError(err error) bool {
	return categoryOf(err) == CategoryBuild
}

// IsBlockError reports whether err came from a block's own execution.
func IsBlockError(err error) bool {
	return categoryOf(err) == CategoryBlock
}

// IsRuntimeError reports whether err is fatal to the scheduler itself.
func IsRuntimeError(err error) bool {
	return categoryOf(err) == CategoryRuntime
}

func categoryOf(err error) ErrorCategory {
	var e *Error
	if errors.As(err, &e) {
		return e.Code.Category()
	}
	return ""
}
