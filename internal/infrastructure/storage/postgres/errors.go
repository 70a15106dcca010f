package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"stockflow/internal/core/apperror"
)

// SQLSTATE codes mapped to application errors.
const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
	sqlStateCheckViolation      = "23514"
)

// AsPgError extracts *pgconn.PgError from the chain.
func AsPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsUniqueViolation reports whether err violates the named unique constraint.
// An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	pgErr, ok := AsPgError(err)
	if !ok || pgErr.Code != sqlStateUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// MapConstraintError turns integrity violations into application errors.
// Other errors are returned unchanged.
func MapConstraintError(err error, entity string) error {
	pgErr, ok := AsPgError(err)
	if !ok {
		return err
	}

	switch pgErr.Code {
	case sqlStateUniqueViolation:
		return apperror.NewDuplicate(entity, pgErr.ColumnName, pgErr.ConstraintName).WithCause(err)
	case sqlStateForeignKeyViolation:
		return apperror.NewValidation("referenced record does not exist").
			WithDetail("entity", entity).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case sqlStateCheckViolation:
		return apperror.NewValidation("value violates a constraint").
			WithDetail("entity", entity).
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	}
	return err
}
