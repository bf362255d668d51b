// Package services holds the content and identity operations behind the HTTP layer.
package services

import (
	"github.com/pkg/errors"

	"github.com/cppla/sharehub/store"
)

// Kind classifies a service failure. Controllers map kinds to HTTP status codes.
type Kind int

const (
	KindServer Kind = iota
	KindUnauthenticated
	KindValidation
	KindNotFound
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	default:
		return "server"
	}
}

// Error is the error type returned by every service operation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// ErrValidation reports bad input.
func ErrValidation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// ErrNotFound reports a missing entity.
func ErrNotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// ErrForbidden reports an actor that is not the owner.
func ErrForbidden() *Error { return &Error{Kind: KindForbidden, Message: "Not authorized"} }

// ErrUnauthenticated collapses every authentication failure into one message; cause is kept for logs.
func ErrUnauthenticated(cause error) *Error {
	return &Error{Kind: KindUnauthenticated, Message: "Authentication required", Err: cause}
}

// ErrServer wraps an unexpected failure.
func ErrServer(err error) *Error { return &Error{Kind: KindServer, Message: "Server error", Err: err} }

// KindOf returns the kind of err, KindServer for foreign errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindServer
}

// notFoundOr maps store.ErrNotFound to a NotFound error with msg, everything else to a server error.
func notFoundOr(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound(msg)
	}
	return ErrServer(err)
}
