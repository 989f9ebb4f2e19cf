// Package errors defines the structured error taxonomy shared across sioba's
// core packages: lifecycle-state violations, transport faults, and registry
// misuse all surface through the same Error type so callers can dispatch on
// Code with errors.Is rather than string matching.
package errors

import (
	"fmt"
)

// Code is a high-level error category, matching the error kinds enumerated
// in the interface lifecycle and registry contracts.
type Code string

const (
	NotStarted         Code = "not-started"
	TerminalClosed     Code = "terminal-closed"
	InterfaceShutdown  Code = "interface-shutdown"
	InterfaceInterrupt Code = "interface-interrupt"
	UnknownScheme      Code = "unknown-scheme"
	DuplicateScheme    Code = "duplicate-scheme"
	InvalidFactory     Code = "invalid-factory"
	ConnectionReset    Code = "connection-reset"
	ConnectionFailed   Code = "connection-failed"
	TransportError     Code = "transport-error"
	SSLVerifyFailed    Code = "ssl-verify-failed"
)

// Error carries an operation label, a category code, an optional wrapped
// cause, and a human message.
type Error struct {
	Op    string
	Code  Code
	Msg   string
	Inner error
}

func New(op string, code Code, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

func Wrap(op string, code Code, inner error) *Error {
	return &Error{Op: op, Code: code, Msg: inner.Error(), Inner: inner}
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("sioba: %s (op=%s, code=%s)", e.Msg, e.Op, e.Code)
	}
	return fmt.Sprintf("sioba: %s (code=%s)", e.Msg, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Inner
}

// Is reports whether target is an *Error with the same Code, so
// errors.Is(err, ErrNotStarted) matches any *Error whose Code is NotStarted.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// Of reports the Code of err, if err is (or wraps) a *Error.
func Of(err error) (Code, bool) {
	var se *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			se = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if se == nil {
		return "", false
	}
	return se.Code, true
}

// Sentinel instances for use with errors.Is(err, errors.ErrNotStarted).
var (
	ErrNotStarted         = &Error{Code: NotStarted, Msg: "interface not started"}
	ErrTerminalClosed     = &Error{Code: TerminalClosed, Msg: "interface is shut down"}
	ErrInterfaceShutdown  = &Error{Code: InterfaceShutdown, Msg: "dispatch loop is gone"}
	ErrInterfaceInterrupt = &Error{Code: InterfaceInterrupt, Msg: "interrupted by user"}
	ErrUnknownScheme      = &Error{Code: UnknownScheme, Msg: "no handler registered for scheme"}
	ErrDuplicateScheme    = &Error{Code: DuplicateScheme, Msg: "scheme already registered"}
	ErrInvalidFactory     = &Error{Code: InvalidFactory, Msg: "factory does not produce an Interface"}
	ErrConnectionReset    = &Error{Code: ConnectionReset, Msg: "connection reset"}
	ErrConnectionFailed   = &Error{Code: ConnectionFailed, Msg: "connection failed"}
	ErrTransportError     = &Error{Code: TransportError, Msg: "transport write failed"}
	ErrSSLVerifyFailed    = &Error{Code: SSLVerifyFailed, Msg: "tls verification failed"}
)
