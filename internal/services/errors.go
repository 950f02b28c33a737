package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/taskboard-api/internal/repository"
)

// Error kinds. Every error a service returns on purpose wraps exactly one of
// these; anything else is an unexpected failure.
var (
	ErrValidation  = errors.New("validation error")
	ErrAuth        = errors.New("authentication error")
	ErrForbidden   = errors.New("forbidden")
	ErrNotFound    = errors.New("not found")
	ErrUpstream    = errors.New("upstream service error")
	ErrUnavailable = errors.New("service not configured")
)

// Error is a classified service error. Msg is safe to show to users.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func validationf(format string, args ...any) error {
	return newError(ErrValidation, fmt.Sprintf(format, args...))
}

// lookup maps the repository's not-found onto sentinel and wraps anything
// else with op.
func lookup(err error, sentinel error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", op, err)
}
