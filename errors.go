package depository

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath is returned when a path has empty segments.
	ErrInvalidPath = errors.New("depository: invalid path")

	// ErrPathConflict is returned when a write would have to descend through
	// a scalar, or index an array with a non-numeric segment.
	ErrPathConflict = errors.New("depository: path conflicts with existing value")

	// ErrRejected is matched by every RejectError.
	ErrRejected = errors.New("depository: change rejected by filter")

	// ErrNotFound is returned when an operation needs an existing node.
	ErrNotFound = errors.New("depository: path not found")

	// ErrFeedStarted is returned when Start is called on a running Feed.
	ErrFeedStarted = errors.New("depository: feed already started")
)

// RejectError is returned in tetchy mode when a filter rejects a change.
// It carries the rejecting filter and the exact context it was given.
type RejectError struct {
	Filter  *Filter
	Context FilterContext
}

func (e *RejectError) Error() string {
	op := "set"
	if e.Context.DeleteKey {
		op = "delete"
	}
	return fmt.Sprintf("depository: %s %q rejected by filter %q at %q",
		op, e.Context.ProvidedKey, e.Filter.Name(), e.Context.Key)
}

// Unwrap allows errors.Is(err, ErrRejected).
func (*RejectError) Unwrap() error {
	return ErrRejected
}
