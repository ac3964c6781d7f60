// Package dErrors defines the coded errors the service layer returns to
// transports. Codes mirror the failure kinds callers are expected to
// distinguish; everything else is CodeInternal.
package dErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for transport mapping and caller retry decisions.
type Code string

const (
	// CodeValidation covers malformed or missing input detected before any
	// mutation is attempted.
	CodeValidation Code = "validation_error"
	// CodePermissionDenied means the caller's role does not authorize the
	// requested operation.
	CodePermissionDenied Code = "permission_denied"
	// CodeNotFound means the referenced record or identity does not exist.
	CodeNotFound Code = "not_found"
	// CodeInvalidTransition means the record's current status does not match
	// the operation's required predecessor status.
	CodeInvalidTransition Code = "invalid_state_transition"
	// CodeLedger means the underlying commit failed, timed out, or was
	// rejected by the ledger substrate. Retrying is the caller's decision.
	CodeLedger Code = "ledger_error"
	// CodeUnauthorized means the presented identity token could not be
	// verified at the transport boundary.
	CodeUnauthorized Code = "unauthorized"
	// CodeInternal is the fallback for unexpected failures.
	CodeInternal Code = "internal_error"
)

// Error carries a code, a human-readable message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return CodeInternal
}

// MessageOf extracts the human-readable message from err. Uncoded errors map
// to a generic message so internals never leak through the transport.
func MessageOf(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Message
	}
	return "internal error"
}

// HTTPStatus maps a code to the status the HTTP transport responds with.
func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidTransition:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeLedger:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
