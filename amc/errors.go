/*
errors.go - Error kinds surfaced by the billing engine

ERROR CATEGORIES:
  1. NotFound   - AMC or order missing for an id. Not retried.
  2. BadRequest - Missing temporal anchor or invalid input. Not retried.
  3. Internal   - Persistence failures. Cause attached for diagnostics.

Per-AMC failures inside the due-check never surface here; they are counted
in DueCheckResult.Errors.

USAGE:
  if amc.IsNotFound(err) { ... 404 ... }
  if errors.Is(err, amc.ErrInternal) { ... 500 ... }
*/
package amc

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
	ErrInternal   = errors.New("internal error")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// NotFoundError names the missing resource.
type NotFoundError struct {
	Kind string // "amc", "order", "client"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

type BadRequestError struct {
	Reason string
}

func (e *BadRequestError) Error() string { return "bad request: " + e.Reason }

func (e *BadRequestError) Unwrap() error { return ErrBadRequest }

// PersistenceError wraps a failed save. It matches ErrInternal and unwraps to
// the store's own error.
type PersistenceError struct {
	Op    string
	AMCID string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s amc %s: %v", e.Op, e.AMCID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrInternal }

// =============================================================================
// ERROR HELPERS
// =============================================================================

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsClientError(err error) bool { return errors.Is(err, ErrBadRequest) }

func IsInternal(err error) bool { return errors.Is(err, ErrInternal) }
