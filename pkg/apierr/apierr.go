// Package apierr carries the error taxonomy shared by the HTTP clients and
// the favorites synchronizer. Every failure a caller can act on maps to one
// of the kinds below; anything else is wrapped as a server error.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// KindNetwork means no response was received at all.
	KindNetwork Kind = iota
	// KindUnauthorized is a 401-equivalent. Actionable for mutations;
	// reads treat "no session" as "no favorites".
	KindUnauthorized
	KindNotFound
	// KindServer covers 5xx-equivalent failures.
	KindServer
	// KindProjection marks an invalid or missing coordinate. Listings with
	// this error are excluded from rendering, never fatal to a batch.
	KindProjection
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindProjection:
		return "projection"
	}
	return "unknown"
}

type Error struct {
	Kind   Kind
	Status int // HTTP status when one was received, else 0
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Network wraps a transport failure (no HTTP response).
func Network(err error) *Error { return Wrap(KindNetwork, err) }

// FromStatus maps an HTTP status code to the taxonomy. Statuses below 400
// return nil.
func FromStatus(status int, msg string) *Error {
	switch {
	case status < http.StatusBadRequest:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Kind: KindUnauthorized, Status: status, Msg: msg}
	case status == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Status: status, Msg: msg}
	default:
		return &Error{Kind: KindServer, Status: status, Msg: msg}
	}
}

// IsKind reports whether err is (or wraps) an apierr.Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// Transient reports whether a failed request is worth one retry: network
// failures and 5xx responses qualify, client errors do not.
func Transient(err error) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == KindNetwork || ae.Kind == KindServer
	}
	return false
}
