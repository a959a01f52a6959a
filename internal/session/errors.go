package session

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies a failed session operation.
type ErrorKind string

const (
	EngineError       ErrorKind = "EngineError"
	TransportError    ErrorKind = "TransportError"
	SessionStateError ErrorKind = "SessionStateError"
	LookupError       ErrorKind = "LookupError"
	InternalError     ErrorKind = "InternalError"
)

type Error struct {
	Kind  ErrorKind
	Msg   string
	cause error
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapError attaches err as the cause of a new error with message msg.
func WrapError(kind ErrorKind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, cause: err}
}

// failed builds the message "<op> failed! <reason>".
func failed(kind ErrorKind, op, reason string) *Error {
	return &Error{Kind: kind, Msg: op + " failed! " + reason}
}

func engineFailure(op string, err error) *Error {
	return &Error{Kind: EngineError, Msg: op + " failed! " + err.Error(), cause: err}
}

// KindOf returns the kind of err. Errors not raised by the session are
// internal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return InternalError
}
