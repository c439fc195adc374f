package store

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by operations on a closed Mirror.
var ErrClosed = errors.New("store closed")

// StoreError reports a failed store operation.
//
// Callers of the model never see these: the Mirror logs them and moves on.
// Err carries the backend cause and is reachable through errors.Unwrap.
type StoreError struct {
	// Op is the adapter operation (put, put_all, delete, load_all)
	Op string

	// ID is the entity involved (if applicable)
	ID string

	// Err is the underlying cause
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store %s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StoreError) Unwrap() error {
	return e.Err
}

func wrap(op, id string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, ID: id, Err: err}
}
