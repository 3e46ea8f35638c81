package orders

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: the referenced order does not exist at all.
	ErrNotFound = errors.New("order not found")

	// ErrInvalidTransition: the order exists but is not in the state the
	// transition requires, or another rider already claimed it. Kept distinct
	// from ErrNotFound so clients can tell "someone else took this job" from
	// "order vanished".
	ErrInvalidTransition = errors.New("invalid order transition")
)

// PersistenceError wraps a failed store or transaction call. The multi-row
// order write is rolled back before this surfaces.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("orders: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistErr(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
