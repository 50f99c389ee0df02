package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicateExternalRef signals the uniqueness backstop on external_ref.
	ErrDuplicateExternalRef = errors.New("external reference already ingested")

	// ErrDuplicateEmail signals the uniqueness constraint on operator email.
	ErrDuplicateEmail = errors.New("operator email already registered")

	// ErrTransitionConflict signals a guarded status update that matched no
	// row: another process already transitioned the inquiry.
	ErrTransitionConflict = errors.New("inquiry transition guard failed")

	// ErrNoEligibleOperator signals an empty active-operator pool.
	ErrNoEligibleOperator = errors.New("no eligible operator")
)

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
