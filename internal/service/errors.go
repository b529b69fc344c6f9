package service

import (
	"errors"
	"fmt"

	"github.com/trackly/trackly-api/internal/service/dto"
	"github.com/trackly/trackly-api/internal/store"
)

// Error kinds returned by every service. Transports map them to status codes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrTooLarge     = errors.New("payload too large")
)

// invalid wraps a validation failure so it matches ErrInvalidInput and
// still exposes the field list.
type invalid struct{ err error }

func (e invalid) Error() string { return e.err.Error() }

func (e invalid) Unwrap() []error { return []error{ErrInvalidInput, e.err} }

func validate(v any) error {
	if err := dto.Validate(v); err != nil {
		return invalid{err: err}
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)
}

// fromStore translates persistence errors into service kinds. The text after
// the kind prefix is meant for clients.
func fromStore(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %s not found", ErrNotFound, what)
	case errors.Is(err, store.ErrDuplicate):
		return fmt.Errorf("%w: %s already exists", ErrConflict, what)
	case errors.Is(err, store.ErrInUse):
		return fmt.Errorf("%w: %s is still referenced", ErrConflict, what)
	default:
		return err
	}
}
