package service

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a service failure so the HTTP layer can map it without string matching.
type Kind string

const (
	KindConfiguration  Kind = "configuration"
	KindExternal       Kind = "external"
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindState          Kind = "state"
	KindInternal       Kind = "internal"
)

// Error is the typed failure returned by every service operation.
// Missing lists setting names for KindConfiguration.
type Error struct {
	Kind    Kind
	Message string
	Missing []string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case len(e.Missing) > 0:
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Missing, ", "))
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// ErrInvalidCredentials is the single message for every login failure, so callers
// cannot tell an unknown email from a wrong password.
var ErrInvalidCredentials = &Error{Kind: KindAuthentication, Message: "invalid email or password"}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func configurationError(msg string, missing []string) *Error {
	return &Error{Kind: KindConfiguration, Message: msg, Missing: missing}
}

// KindOf returns the Kind of err, or "" when err is not a service Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
