package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so the transport layer can map it to a status
// code without parsing messages.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindNotAvailable
	KindForbidden
	KindInvalidTransition
	KindInvalidInput
	KindPersistenceFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindNotAvailable:
		return "not_available"
	case KindForbidden:
		return "forbidden"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindInvalidInput:
		return "invalid_input"
	case KindPersistenceFailure:
		return "persistence_failure"
	default:
		return "unknown"
	}
}

// HTTPStatus is a hint only; the handler owns the final mapping.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindNotAvailable, KindInvalidTransition:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of err, or KindUnknown if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is matches errors by kind, so tests and callers can use errors.Is with a
// bare kind sentinel such as apperr.New(apperr.KindNotFound, "").
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Kind == t.Kind
}
