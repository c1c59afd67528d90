// Package liveerr defines the error taxonomy shared by the live testing packages.
//
// Every failure is an *Error carrying a Kind. Callers branch on the kind with errors.Is
// against one of the kind sentinels, or unwrap with errors.As to get at the operation and
// the underlying cause:
//
//	if errors.Is(err, liveerr.ErrConfiguration) { ... }
package liveerr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	// Configuration means a required collaborator is missing or misdeclared, such as a test type
	// that has no hook for supplying its application manager.
	Configuration Kind = iota + 1
	// Validation means an argument was unusable, such as a nil request.
	Validation
	// Operational means the environment could not do what was asked, such as a boundary that
	// could not be created or a request executed outside a hosted context.
	Operational
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration error"
	case Validation:
		return "validation error"
	case Operational:
		return "operational error"
	default:
		return "error"
	}
}

// Kind sentinels, for use with errors.Is.
var (
	ErrConfiguration = &Error{Kind: Configuration}
	ErrValidation    = &Error{Kind: Validation}
	ErrOperational   = &Error{Kind: Operational}
)

// Error is the concrete error type returned by this module.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match when target is an *Error of the same kind with no message, which is
// what the kind sentinels are.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// Configurationf returns a configuration error for op.
func Configurationf(op, format string, args ...interface{}) error {
	return &Error{Kind: Configuration, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Validationf returns a validation error for op.
func Validationf(op, format string, args ...interface{}) error {
	return &Error{Kind: Validation, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Operationalf returns an operational error for op.
func Operationalf(op, format string, args ...interface{}) error {
	return &Error{Kind: Operational, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an error of the given kind that wraps err.
func Wrap(kind Kind, op string, err error, message string) error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0 if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
