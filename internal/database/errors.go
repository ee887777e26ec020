package database

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classified from backend failures. Handlers map these to
// HTTP status codes at the boundary.
var (
	// ErrConnection means the backing store could not be opened
	ErrConnection = errors.New("cannot open database")
	// ErrNoSuchTable means the target table does not exist
	ErrNoSuchTable = errors.New("table not found")
	// ErrNotFound means no row matched the given identifier
	ErrNotFound = errors.New("row not found")
	// ErrBadRequest means a required parameter was missing or invalid
	ErrBadRequest = errors.New("bad request")
	// ErrConflict means an insert violated a uniqueness constraint
	ErrConflict = errors.New("conflicting value for a unique column")
	// ErrQueryTimeout means execution exceeded the configured bound; the
	// statement may still complete inside the backend
	ErrQueryTimeout = errors.New("query timed out")
)

// ExecutionError wraps any backend failure that has no dedicated
// classification. The driver detail travels with it so handlers can expose
// it outside production mode.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return "query execution failed: " + e.Err.Error()
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// classify rewrites driver errors into the local taxonomy. SQLite reports
// both conditions only through its message text.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such table"):
		return fmt.Errorf("%w: %v", ErrNoSuchTable, err)
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return &ExecutionError{Err: err}
	}
}
