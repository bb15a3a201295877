package storage

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"
)

// SchemaError reports a DDL failure against a target table, for example a
// cast that the existing column data cannot satisfy. Fatal for the file
// being imported.
type SchemaError struct {
	Table  string
	Column string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("schema change failed on %s.%s: %v", e.Table, e.Column, e.Err)
	}
	return fmt.Sprintf("schema change failed on %s: %v", e.Table, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// IntegrityError reports an insert rejected by a constraint. The import
// ledger entry is never written for the file, so re-runs stay safe.
type IntegrityError struct {
	Table string
	Err   error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("insert into %s rejected: %v", e.Table, e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// isConstraintViolation reports whether err is a Postgres integrity
// constraint violation (SQLSTATE class 23).
func isConstraintViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "23"
	}
	return false
}

// IsConnectionError reports whether err indicates the database connection
// itself failed (SQLSTATE class 08, a bad driver connection, or a network
// error). Connection loss is fatal for the whole run.
func IsConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "08"
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
