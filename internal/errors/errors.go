package errors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error kind mapped to process exit codes.
type Code int

const (
	CodeSuccess           Code = 0
	CodeInternal          Code = 1
	CodeInvalidArgument   Code = 2
	CodeSerialization     Code = 3
	CodeKeyLoad           Code = 10
	CodeUnavailable       Code = 11
	CodeMalformedResponse Code = 12
	CodeRejected          Code = 13
	CodeBlocked           Code = 16
)

// Type returns the stable string used for the code in error envelopes.
func (c Code) Type() string {
	switch c {
	case CodeSuccess:
		return "ok"
	case CodeInvalidArgument:
		return "invalid_argument"
	case CodeSerialization:
		return "serialization_error"
	case CodeKeyLoad:
		return "key_load_error"
	case CodeUnavailable:
		return "network_unavailable"
	case CodeMalformedResponse:
		return "network_malformed_response"
	case CodeRejected:
		return "network_rejected"
	case CodeBlocked:
		return "command_blocked"
	default:
		return "internal_error"
	}
}

// IsNetwork reports whether the code belongs to the NetworkError family.
func (c Code) IsNetwork() bool {
	return c == CodeUnavailable || c == CodeMalformedResponse || c == CodeRejected
}

// Error is a typed CLI error that carries a stable error code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// CodeOf returns the code carried by err, or CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if err == nil {
		return CodeSuccess
	}
	if cliErr, ok := As(err); ok {
		return cliErr.Code
	}
	return CodeInternal
}

func ExitCode(err error) int {
	return int(CodeOf(err))
}
