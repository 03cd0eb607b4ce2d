package trace

// Listener receives events from the sources it is attached to.
//
// OnEvent runs synchronously on the emitting goroutine and may be called
// concurrently when several goroutines emit at once; implementations
// serialize access to their own sinks. A returned error or a panic is
// reported as a ListenerFault and does not affect other listeners.
//
// Listeners are compared with == on Attach and Detach. Attach rejects
// listeners whose dynamic type is not comparable, such as func types or
// structs holding slices; use a pointer type or ListenerFunc.
type Listener interface {
	OnEvent(e *Event) error
}

// SourceObserver is notified once for every source in a registry,
// including sources registered before the observer was added.
type SourceObserver interface {
	OnSourceCreated(src *Source)
}

// funcListener adapts a function to Listener. It is a pointer type so it
// can be compared on Detach.
type funcListener struct {
	fn func(*Event) error
}

func (l *funcListener) OnEvent(e *Event) error {
	return l.fn(e)
}

// ListenerFunc wraps fn as a Listener. Each call returns a distinct
// listener.
func ListenerFunc(fn func(*Event) error) Listener {
	return &funcListener{fn: fn}
}

type funcObserver struct {
	fn func(*Source)
}

func (o *funcObserver) OnSourceCreated(src *Source) {
	o.fn(src)
}

// ObserverFunc wraps fn as a SourceObserver.
func ObserverFunc(fn func(*Source)) SourceObserver {
	return &funcObserver{fn: fn}
}
