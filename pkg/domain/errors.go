package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidAction is returned when a nil Action is supplied where a
// runnable action was required. It is raised at enqueue/compose time,
// before any queueing or execution.
var ErrInvalidAction = errors.New("invalid action: nil")

// InvalidActionError reports which element of a supplied action list was
// nil. It wraps ErrInvalidAction so callers can match with errors.Is.
type InvalidActionError struct {
	Index int
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action at index %d: nil", e.Index)
}

func (e *InvalidActionError) Unwrap() error { return ErrInvalidAction }

// ValidateActions checks every element eagerly and returns an
// InvalidActionError for the first nil entry.
func ValidateActions(actions []Action) error {
	for i, a := range actions {
		if a == nil {
			return &InvalidActionError{Index: i}
		}
	}
	return nil
}

// ExecutionError reports that an action, or the promise it returned,
// failed during execution. It wraps the underlying cause.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("action execution failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
