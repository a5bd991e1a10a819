package services

import (
	"context"
	"database/sql"
	"errors"

	"wastereport/internal/observability"
	contextutils "wastereport/internal/utils"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = pq.ErrorCode("23505")
	pqForeignKeyViolation = pq.ErrorCode("23503")
	pqCheckViolation      = pq.ErrorCode("23514")
)

// isDuplicateKeyError checks if the error is a duplicate key constraint violation
func isDuplicateKeyError(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// isForeignKeyError checks if the error references a missing row
func isForeignKeyError(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}

// checkViolation returns the name of the violated CHECK constraint
func checkViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqCheckViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

// mapWriteError translates driver constraint errors into the application taxonomy
func mapWriteError(err error, context string) error {
	switch {
	case err == nil:
		return nil
	case isDuplicateKeyError(err):
		return contextutils.WrapError(contextutils.ErrRecordExists, context)
	case isForeignKeyError(err):
		return contextutils.WrapError(contextutils.ErrForeignKeyViolation, context)
	}
	if constraint, ok := checkViolation(err); ok {
		return contextutils.WrapErrorf(contextutils.ErrValidationFailed, "%s: violates %s", context, constraint)
	}
	return queryError(err, context)
}

// queryError tags a failed statement or scan as a database query error
func queryError(err error, context string) error {
	return contextutils.WrapWithCode(contextutils.ErrDatabaseQuery, err, context)
}

// txError tags a failed begin or commit as a database transaction error
func txError(err error, context string) error {
	return contextutils.WrapWithCode(contextutils.ErrDatabaseTransaction, err, context)
}

// rollbackTx rolls back a transaction unless it has already been committed
func rollbackTx(ctx context.Context, logger *observability.Logger, tx *sql.Tx) {
	if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
		logger.Error(ctx, "Failed to rollback transaction", rollbackErr)
	}
}
