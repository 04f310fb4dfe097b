package errors

// Postgres-specific helpers for mapping pgx errors to project ErrorCode

import (
	stderrs "errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Common SQLSTATE codes we care about
const (
	pgErrUniqueViolation  = "23505"
	pgErrCannotConnectNow = "57P03" // i.e. startup in progress
)

// ExtractPgError returns (*pgconn.PgError, true) if the root cause is a PgError.
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(Root(err), &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// FromPG wraps a pgx error with the closest project code
// unique violations become DuplicateKey, a starting server is Unavailable, everything else is DB
func FromPG(err error, msg string) error {
	if err == nil {
		return nil
	}
	if pgErr, ok := ExtractPgError(err); ok {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return WithField(Wrap(err, ErrorCodeDuplicateKey, msg), pgErr.ConstraintName)
		case pgErrCannotConnectNow:
			return Wrap(err, ErrorCodeUnavailable, msg)
		}
	}
	return Wrap(err, ErrorCodeDB, msg)
}
