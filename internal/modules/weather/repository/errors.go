package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"net"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
)

// IsOperational reports whether a store error means the store itself is
// unreachable or failing, as opposed to rejecting this particular row.
// Operational errors trigger reconnection and message redelivery; anything
// else (notably integrity-constraint violations from the table's CHECK
// clauses) is treated as poison and discarded, because requeueing a row the
// store will always reject would loop forever.
func IsOperational(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgerrcode.IsOperatorIntervention(pgErr.Code),
			pgerrcode.IsInsufficientResources(pgErr.Code),
			pgerrcode.IsSystemError(pgErr.Code):
			return true
		default:
			return false
		}
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
