// Package services defines the business logic of the RFQ negotiation engine.
// This file centralizes the service-level error taxonomy so that every
// operation fails with one of a small set of sentinel kinds.
//
// Service methods wrap a sentinel with detail (fmt.Errorf("%w: ...")), and
// handlers map the kind to an HTTP status with errors.Is. No operation retries
// on its own; callers decide.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-rfq-backend/internal/repo"
)

var (
	// ErrValidation indicates malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden is returned when the caller does not own the resource it
	// is trying to act on.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the RFQ or quotation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when a transition is not allowed from the
	// current state, including when a concurrent writer changed it first.
	ErrInvalidState = errors.New("invalid state")

	// ErrDuplicate is returned when a vendor already holds a pending
	// quotation on the RFQ.
	ErrDuplicate = errors.New("duplicate quotation")

	// ErrExpired is returned when accepting a quotation whose validity has
	// lapsed.
	ErrExpired = errors.New("quotation expired")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func invalidStatef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// notFound maps the repository's missing-row error onto ErrNotFound and
// passes every other error through.
func notFound(err error, what, id string) error {
	if repo.IsNotFound(err) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
	}
	return err
}

// lostRace maps a failed compare-and-swap onto ErrInvalidState.
func lostRace(err error, what string) error {
	if errors.Is(err, repo.ErrStale) {
		return invalidStatef("%s was modified concurrently", what)
	}
	return err
}
