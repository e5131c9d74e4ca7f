// README: Error taxonomy with stable machine-readable codes.
package apperr

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeInvalidRequest          Code = "invalid_request"
	CodeNotFound                Code = "not_found"
	CodeInvalidStatusTransition Code = "invalid_status_transition"
	CodeResourceUnavailable     Code = "resource_unavailable"
	CodeAuthorizationDenied     Code = "authorization_denied"
	CodePersistenceFailure      Code = "persistence_failure"
)

type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Cause: cause}
}

// CodeOf extracts the taxonomy code from err, defaulting to persistence_failure
// for unknown errors since those are almost always store failures.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodePersistenceFailure
}

func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}
