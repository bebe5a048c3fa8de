package domain

import "errors"

// Error kinds. Match them with errors.Is; the concrete error is an *Error.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrStorage      = errors.New("storage failure")
)

// User-facing messages for authorization failures. They are deliberately
// the same whether the resource is missing or owned by someone else.
const (
	MsgLoginRequired = "you must be logged in to do that"
	MsgAccessDenied  = "access denied"
	MsgBadCredential = "email or password incorrect"
)

// Error is an expected failure of a core operation. Message is safe to
// show to the user; Err carries the underlying cause, if any.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func Validation(msg string) *Error { return &Error{Kind: ErrValidation, Message: msg} }

func NotFound(msg string) *Error { return &Error{Kind: ErrNotFound, Message: msg} }

func Conflict(msg string) *Error { return &Error{Kind: ErrConflict, Message: msg} }

func Unauthorized(msg string) *Error { return &Error{Kind: ErrUnauthorized, Message: msg} }

// Storage wraps a persistence failure.
func Storage(msg string, err error) *Error {
	return &Error{Kind: ErrStorage, Message: msg, Err: err}
}

// Message returns the user-facing text for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "unexpected error"
}
