package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by every error reporting a missing canvas or artifact.
var ErrNotFound = errors.New("not found")

// NotFoundError identifies the missing resource.
type NotFoundError struct {
	Kind string // "canvas", "node", "artifact", ...
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Unwrap lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError reports a save made against a stale canvas version.
type ConflictError struct {
	ID       string
	Expected int
	Actual   int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("canvas %q was modified concurrently (expected version %d, current %d)", e.ID, e.Expected, e.Actual)
}

// NetworkError wraps a transport failure. The operation may be retried by the
// user; nothing retries it automatically.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }
