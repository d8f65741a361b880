package database

import (
	"database/sql"
	stderrors "errors"

	"github.com/lib/pq"
	"github.com/medflow/stockroom/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MapError converts a driver error into an AppError.
// Unique violations become conflicts, missing rows become not found for resource,
// and anything else is reported as a backend failure.
func MapError(err error, resource string, op string) error {
	if err == nil {
		return nil
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound(resource)
	}

	if IsUniqueViolation(err) {
		return errors.Conflict("errors.duplicate", "a record with these values already exists", map[string]string{"resource": resource})
	}

	return errors.Backend(op, err)
}

// IsUniqueViolation reports whether err is a unique constraint failure on either driver
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if stderrors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	return false
}
