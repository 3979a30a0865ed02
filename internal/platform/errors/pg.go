package errors

import (
	"context"
	stderrs "errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the run ledger maps
const (
	sqlUniqueViolation  = "23505"
	sqlNotNullViolation = "23502"
	sqlCheckViolation   = "23514"
	sqlUndefinedTable   = "42P01"
	sqlQueryCanceled    = "57014" // statement_timeout fired
	sqlReadOnly         = "25006"
	sqlCannotConnectNow = "57P03"
)

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUndefinedTable reports a missing ledger table (schema not ensured yet)
func IsUndefinedTable(err error) bool { return sqlState(err) == sqlUndefinedTable }

// FromPostgres wraps a ledger error with msg and a code derived from its
// SQLSTATE. Timeouts, including the per transaction statement_timeout, are
// Unavailable. nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code := ErrorCodeDB
	switch sqlState(err) {
	case sqlUniqueViolation:
		code = ErrorCodeInvalidArgument
	case sqlNotNullViolation, sqlCheckViolation:
		code = ErrorCodeValidation
	case sqlQueryCanceled, sqlReadOnly, sqlCannotConnectNow:
		code = ErrorCodeUnavailable
	default:
		if stderrs.Is(err, context.DeadlineExceeded) {
			code = ErrorCodeUnavailable
		}
	}
	return Wrap(err, code, msg)
}
