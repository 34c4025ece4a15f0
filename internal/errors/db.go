package errors

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MapDBError maps database errors from the document store to AppError
// instances:
//   - pgx.ErrNoRows → NotFound
//   - context deadline/cancellation → Timeout/Canceled
//   - invalid input syntax → Validation
//   - any other PostgreSQL error → Internal
//
// Unrecognized errors pass through unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "document lookup timed out",
			Cause:   err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{
			Code:    ErrCodeCanceled,
			Message: "document lookup was canceled",
			Cause:   err,
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return &AppError{
			Code:    ErrCodeNotFound,
			Message: "document not found",
			Cause:   err,
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}

	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.InvalidTextRepresentation, pgerrcode.DatatypeMismatch:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "invalid document lookup key",
			Cause:   pgErr,
		}
	case pgerrcode.UndefinedTable, pgerrcode.InsufficientPrivilege:
		return &AppError{
			Code:    ErrCodeInternal,
			Message: "document store is not provisioned for this service",
			Cause:   pgErr,
		}
	default:
		return &AppError{
			Code:    ErrCodeInternal,
			Message: "a database error occurred",
			Cause:   pgErr,
		}
	}
}
