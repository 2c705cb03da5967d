package logstore

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by point lookups on a missing id.
var ErrNotFound = errors.New("log record not found")

// PersistenceError wraps a storage-layer fault.  Op names the store
// operation that failed.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("logstore %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistence reports whether err is, or wraps, a *PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

func fault(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
