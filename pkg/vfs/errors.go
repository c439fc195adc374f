package vfs

import "errors"

// ModelError represents a rejected model operation.
//
// These are structural and validation errors (missing entity, invalid parent,
// cycle) as opposed to persistence errors, which never reach the caller of a
// model operation. The view layer decides how to surface them; most call sites
// treat ErrNotFound as a no-op.
type ModelError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// ID is the entity the error refers to (if applicable)
	ID string
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	if e.ID != "" {
		return e.Message + ": " + e.ID
	}
	return e.Message
}

// Is matches another *ModelError with the same Code, so callers can write
// errors.Is(err, &vfs.ModelError{Code: vfs.ErrNotFound}).
func (e *ModelError) Is(target error) bool {
	var other *ModelError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// ErrorCode represents the category of a model error.
type ErrorCode int

const (
	// ErrNotFound indicates the referenced entity does not exist
	ErrNotFound ErrorCode = iota

	// ErrInvalidParent indicates the target is missing, trashed, or not a container
	ErrInvalidParent

	// ErrCycleDetected indicates a move would place an entity under itself
	ErrCycleDetected

	// ErrInvalidName indicates an empty name after trimming
	ErrInvalidName

	// ErrInvalidArgument indicates the operation does not apply to the entity
	// (for example moving or trashing the root)
	ErrInvalidArgument
)

// String returns the code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "NotFound"
	case ErrInvalidParent:
		return "InvalidParent"
	case ErrCycleDetected:
		return "CycleDetected"
	case ErrInvalidName:
		return "InvalidName"
	case ErrInvalidArgument:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}

// IsCode reports whether err, or any error it wraps or joins, is a
// *ModelError with the given code.
func IsCode(err error, code ErrorCode) bool {
	return errors.Is(err, &ModelError{Code: code})
}

// CodeOf returns the code of the first *ModelError found in err.
func CodeOf(err error) (ErrorCode, bool) {
	var me *ModelError
	if errors.As(err, &me) {
		return me.Code, true
	}
	return 0, false
}

func notFound(id string) error {
	return &ModelError{Code: ErrNotFound, Message: "entity not found", ID: id}
}

func invalidParent(id, reason string) error {
	return &ModelError{Code: ErrInvalidParent, Message: "invalid parent: " + reason, ID: id}
}

func cycleDetected(id string) error {
	return &ModelError{Code: ErrCycleDetected, Message: "target is the entity itself or one of its descendants", ID: id}
}

func invalidName(id string) error {
	return &ModelError{Code: ErrInvalidName, Message: "name must not be empty", ID: id}
}

func invalidArgument(id, reason string) error {
	return &ModelError{Code: ErrInvalidArgument, Message: reason, ID: id}
}
