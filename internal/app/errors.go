package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrClosed is returned by operations on a closed App.
	ErrClosed = errors.New("app is closed")

	// ErrNoRegistry is returned when Options has no registry.
	ErrNoRegistry = errors.New("registry is required")
)

// ComponentError reports a failure in one configured component.
type ComponentError struct {
	Component string // e.g. "listener console"
	Action    string // e.g. "build", "close"
	Err       error
}

func (e *ComponentError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s: %s: %v", e.Component, e.Action, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Component, e.Err)
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}
