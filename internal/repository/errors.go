// Package repository holds the SQL data access layer and the error kinds
// shared by every layer above it.  Handlers translate the kinds into HTTP
// statuses: ErrNotFound 404, ErrConflict 409, ErrInvalid 400 and
// ErrForbidden 403.  Higher layers wrap a kind with fmt.Errorf("%w: ...")
// to attach a specific message.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a row does not exist or is not visible to
// the caller.  Ownership failures are folded into it so existence is not
// leaked.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when the current state forbids the operation:
// an active booking already holds the slot, a booking is no longer
// pending, or a row is still referenced.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is the ErrConflict raised by a unique or exclusion
// constraint, as opposed to a foreign key still pointing at a row.
var ErrDuplicate = fmt.Errorf("%w: duplicate", ErrConflict)

// ErrInvalid is returned when stored constraints reject the input.
var ErrInvalid = errors.New("invalid input")

// ErrForbidden is returned when the caller lacks the role for an operation.
var ErrForbidden = errors.New("forbidden")

// ErrEmailExists is returned on a duplicate e-mail or username at signup.
var ErrEmailExists = fmt.Errorf("%w: email or username already exists", ErrConflict)

// Postgres SQLSTATE codes mapped by mapPQError.
const (
	pqUniqueViolation     = "23505"
	pqExclusionViolation  = "23P01"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// mapPQError converts constraint violations into error kinds and passes
// every other error through unchanged.  sql.ErrNoRows becomes ErrNotFound.
func mapPQError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation, pqExclusionViolation:
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	case pqForeignKeyViolation:
		return fmt.Errorf("%w: still referenced by %s", ErrConflict, pqErr.Table)
	case pqCheckViolation:
		return fmt.Errorf("%w: %s", ErrInvalid, pqErr.Constraint)
	}
	return err
}

func isFKViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}
