package bake

import (
	"errors"
	"fmt"
)

// Error kinds. None of them aborts a batch.
var (
	// ErrUnknownCategory marks a request for a category outside the table.
	ErrUnknownCategory = errors.New("bake: unknown category")
	// ErrUnresolvableClass marks a class that is not in the class index.
	ErrUnresolvableClass = errors.New("bake: unresolvable class")
	// ErrFixtureDiscovery marks a fixture list that could not be derived.
	ErrFixtureDiscovery = errors.New("bake: fixture discovery failed")
	// ErrFileWrite marks a test case that could not be written.
	ErrFileWrite = errors.New("bake: file write failed")
)

// ErrAborted is returned by a FileWriter when the user stops the run.
// It ends a batch; the remaining targets are not attempted.
var ErrAborted = errors.New("bake: aborted by user")

// Error is a failure attached to one bake.
type Error struct {
	// Kind is one of the Err* sentinels.
	Kind error
	// Class is the class being baked, if resolved.
	Class string
	// Err is the underlying cause.
	Err error
}

func newError(kind error, class string, err error) *Error {
	return &Error{Kind: kind, Class: class, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Class == "" && e.Err == nil:
		return e.Kind.Error()
	case e.Class == "":
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	case e.Err == nil:
		return fmt.Sprintf("%v: %s", e.Kind, e.Class)
	default:
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Class, e.Err)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
