package dispatch

import "time"

// Target receives a dispatched event.
// This mirrors trace.Listener to avoid an import cycle.
type Target interface {
	OnEvent(event any) error
}

// TargetFunc adapts a function to Target.
type TargetFunc func(event any) error

// OnEvent implements Target.
func (f TargetFunc) OnEvent(event any) error {
	return f(event)
}

// Result is the outcome of a single delivery.
type Result struct {
	// Success is true if the target returned nil without panicking.
	Success bool

	// Error is the error returned by the target, if any.
	Error error

	// Panicked is true if the target panicked.
	Panicked bool

	// PanicValue is the value passed to panic().
	PanicValue any

	// PanicStack is the stack trace captured at the panic.
	PanicStack []byte

	// Duration is how long the target took.
	Duration time.Duration

	// Slow is set by a dispatcher with a slow threshold.
	Slow bool
}

// IsSuccess returns true if the delivery completed cleanly.
func (r Result) IsSuccess() bool {
	return r.Success && !r.Panicked && r.Error == nil
}

// PanicHandler is called when a target panics.
type PanicHandler func(event any, panicValue any, stack []byte)
