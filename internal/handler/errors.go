package handler

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies authorization failures.
type Kind int

const (
	// KindInternal covers failures outside the classified kinds.
	KindInternal Kind = iota
	// KindSignatureMismatch is a callback whose signature does not match its body.
	KindSignatureMismatch
	// KindUpstreamUnavailable is a Smartsheet API failure while provisioning a shared secret.
	KindUpstreamUnavailable
	// KindMalformedInput is a callback with missing headers or an unparsable body.
	KindMalformedInput
)

func (k Kind) String() string {
	switch k {
	case KindSignatureMismatch:
		return "signature-mismatch"
	case KindUpstreamUnavailable:
		return "upstream-unavailable"
	case KindMalformedInput:
		return "malformed-input"
	default:
		return "internal"
	}
}

// StatusCode returns the response status for the kind. Unless detailed is set every kind collapses to 500.
func (k Kind) StatusCode(detailed bool) int {
	if !detailed {
		return http.StatusInternalServerError
	}
	switch k {
	case KindMalformedInput:
		return http.StatusBadRequest
	case KindSignatureMismatch:
		return http.StatusUnauthorized
	case KindUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified authorization failure.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Format prints the cause's stack trace with %+v.
func (e *Error) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		_, _ = fmt.Fprintf(s, "%s: %+v", e.Kind, e.Cause)
		return
	}
	_, _ = fmt.Fprint(s, e.Error())
}

func newError(kind Kind, cause error) error {
	return &Error{Kind: kind, Cause: cause}
}

// KindOf returns the kind of err, or KindInternal when err is unclassified.
func KindOf(err error) Kind {
	var hErr *Error
	if errors.As(err, &hErr) {
		return hErr.Kind
	}
	return KindInternal
}
