package trace

import (
	"errors"
	"fmt"
	"strconv"
)

// Definition errors, wrapped by DefinitionError.
var (
	ErrInvalidSourceName = errors.New("source name must not be empty")
	ErrInvalidID         = errors.New("event id must be positive")
	ErrDuplicateID       = errors.New("duplicate event id")
	ErrInvalidName       = errors.New("event name must not be empty")
	ErrDuplicateName     = errors.New("duplicate event name")
	ErrInvalidParam      = errors.New("parameter name must not be empty")
	ErrDuplicateParam    = errors.New("duplicate parameter name")
	ErrBadTemplate       = errors.New("malformed message template")
	ErrTemplateArity     = errors.New("message template refers to more values than declared parameters")
)

// Emission errors, wrapped by PayloadError.
var (
	ErrUnknownEvent = errors.New("unknown event id")
	ErrArity        = errors.New("payload arity mismatch")
	ErrType         = errors.New("payload type mismatch")
)

// Registry and listener errors.
var (
	ErrNilSource         = errors.New("source cannot be nil")
	ErrNilListener       = errors.New("listener cannot be nil")
	ErrUncomparable      = errors.New("listener type is not comparable")
	ErrDuplicateSource   = errors.New("duplicate source name")
	ErrAlreadyRegistered = errors.New("source already registered")
	ErrListenerPanic     = errors.New("listener panicked")
	ErrObserverPanic     = errors.New("source observer panicked")
)

// DefinitionError reports an invalid event definition. It is returned when
// a source is constructed and means no events can be emitted from it.
type DefinitionError struct {
	Source string
	ID     uint16
	Name   string
	Err    error
}

func (e *DefinitionError) Error() string {
	msg := "source " + strconv.Quote(e.Source)
	if e.ID != 0 || e.Name != "" {
		msg += " event " + strconv.Itoa(int(e.ID))
		if e.Name != "" {
			msg += " (" + e.Name + ")"
		}
	}
	return msg + ": " + e.Err.Error()
}

func (e *DefinitionError) Unwrap() error {
	return e.Err
}

// PayloadError reports values that do not match an event's declared
// parameters. It indicates a defect in the producer.
type PayloadError struct {
	Source string
	Event  string
	ID     uint16

	// Index is the offending value position, or -1 for arity errors.
	Index int

	Want string
	Got  string
	Err  error
}

func (e *PayloadError) Error() string {
	prefix := "source " + strconv.Quote(e.Source)
	switch {
	case errors.Is(e.Err, ErrUnknownEvent):
		return fmt.Sprintf("%s: %v %d", prefix, e.Err, e.ID)
	case e.Index < 0:
		return fmt.Sprintf("%s event %s: %v: want %s values, got %s", prefix, e.Event, e.Err, e.Want, e.Got)
	default:
		return fmt.Sprintf("%s event %s: %v: value %d: want %s, got %s", prefix, e.Event, e.Err, e.Index, e.Want, e.Got)
	}
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// ListenerFault reports a listener callback that returned an error or
// panicked while handling an event. Faults are isolated to the listener
// and never reach the producer.
type ListenerFault struct {
	Source         string
	Event          string
	SubscriptionID string

	Err        error
	Panicked   bool
	PanicValue any
	Stack      []byte
}

func (f *ListenerFault) Error() string {
	if f.Panicked {
		return fmt.Sprintf("listener %s panicked on %s/%s: %v", f.SubscriptionID, f.Source, f.Event, f.PanicValue)
	}
	return fmt.Sprintf("listener %s failed on %s/%s: %v", f.SubscriptionID, f.Source, f.Event, f.Err)
}

func (f *ListenerFault) Unwrap() error {
	return f.Err
}

// Is matches ErrListenerPanic for panics.
func (f *ListenerFault) Is(target error) bool {
	return f.Panicked && target == ErrListenerPanic
}

// RegistryFault reports an internal failure while notifying observers of
// a new source. The registry stays usable; the affected observer is
// detached from the source.
type RegistryFault struct {
	Source string
	Err    error
	Value  any
	Stack  []byte
}

func (f *RegistryFault) Error() string {
	if f.Value != nil {
		return fmt.Sprintf("registry: source %q: %v: %v", f.Source, f.Err, f.Value)
	}
	return fmt.Sprintf("registry: source %q: %v", f.Source, f.Err)
}

func (f *RegistryFault) Unwrap() error {
	return f.Err
}
