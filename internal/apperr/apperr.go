package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the HTTP layer can pick a status code.
type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindAuth
	KindRole
	KindNotFound
	KindConflict
	KindExpired
)

// Error carries a kind plus a client-safe message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports malformed or missing input.
func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }

// Auth reports a missing or invalid credential.
func Auth(msg string) error { return &Error{Kind: KindAuth, Msg: msg} }

// Role reports insufficient privilege.
func Role(msg string) error { return &Error{Kind: KindRole, Msg: msg} }

// NotFound reports a missing entity.
func NotFound(msg string) error { return &Error{Kind: KindNotFound, Msg: msg} }

// Conflict reports a duplicate or an invalid state transition.
func Conflict(msg string) error { return &Error{Kind: KindConflict, Msg: msg} }

// Expired reports a resource whose validity window has passed.
func Expired(msg string) error { return &Error{Kind: KindExpired, Msg: msg} }

// Wrap attaches an underlying cause to a classified error.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind, defaulting to KindUnexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// Message returns the client-safe message for classified errors,
// or a generic one for anything unexpected.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal error"
}
