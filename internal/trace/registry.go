package trace

import (
	"iter"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Registry is the process-scoped directory of event sources.
//
// Create one Registry at startup and pass it to producers and listeners;
// there is no package-level default. Registration and observer
// notification share one critical section, so every observer learns about
// every source exactly once regardless of which was created first.
//
// Observers run while the registry lock is held. They may attach to the
// source they are handed but must not register sources or add observers
// on the same registry.
type Registry struct {
	mu        sync.Mutex
	sources   []*Source
	byName    map[string]*Source
	observers []observerEntry
	nextID    uint64

	logger *slog.Logger
}

type observerEntry struct {
	id  uint64
	obs SourceObserver
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		byName: make(map[string]*Source),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewSource constructs a source and registers it. Sources created this way
// inherit the registry's logger unless opts set one.
func (r *Registry) NewSource(name string, schemas []Schema, opts ...SourceOption) (*Source, error) {
	if r.logger != nil {
		opts = append([]SourceOption{WithLogger(r.logger)}, opts...)
	}
	src, err := NewSource(name, schemas, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.Register(src); err != nil {
		return nil, err
	}
	return src, nil
}

// Register adds src and notifies every observer before returning.
func (r *Registry) Register(src *Source) error {
	if src == nil {
		return ErrNilSource
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.byName[src.name]; dup {
		return &DefinitionError{Source: src.name, Err: ErrDuplicateSource}
	}
	if !src.registered.CompareAndSwap(false, true) {
		return &DefinitionError{Source: src.name, Err: ErrAlreadyRegistered}
	}

	r.sources = append(r.sources, src)
	r.byName[src.name] = src

	for _, entry := range r.observers {
		r.notify(entry.obs, src)
	}
	return nil
}

// Observe adds an observer and calls it for every source already
// registered. The returned function removes the observer; it does not
// detach anything the observer attached.
func (r *Registry) Observe(obs SourceObserver) (cancel func()) {
	if obs == nil {
		return func() {}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.observers = append(r.observers, observerEntry{id: id, obs: obs})

	for _, src := range r.sources {
		r.notify(obs, src)
	}

	var once sync.Once
	return func() {
		once.Do(func() { r.removeObserver(id) })
	}
}

func (r *Registry) removeObserver(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, entry := range r.observers {
		if entry.id == id {
			r.observers = append(r.observers[:i:i], r.observers[i+1:]...)
			return
		}
	}
}

// notify calls obs for src. A panicking observer is reported as a
// RegistryFault and, if it is also a listener, detached from src so the
// source is never left half-attached.
func (r *Registry) notify(obs SourceObserver, src *Source) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		if l, ok := obs.(Listener); ok {
			src.Detach(l)
		}
		fault := &RegistryFault{
			Source: src.name,
			Err:    ErrObserverPanic,
			Value:  v,
			Stack:  debug.Stack(),
		}
		r.log().Error("registry fault",
			slog.String("source", fault.Source),
			slog.String("error", fault.Error()),
		)
	}()

	obs.OnSourceCreated(src)
}

func (r *Registry) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

// Sources returns a lazy sequence over the sources registered at the time
// of the call, in registration order.
func (r *Registry) Sources() iter.Seq[*Source] {
	r.mu.Lock()
	snapshot := make([]*Source, len(r.sources))
	copy(snapshot, r.sources)
	r.mu.Unlock()

	return func(yield func(*Source) bool) {
		for _, src := range snapshot {
			if !yield(src) {
				return
			}
		}
	}
}

// Lookup returns the source registered under name.
func (r *Registry) Lookup(name string) (*Source, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.byName[name]
	return src, ok
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sources)
}

// DetachAll detaches l from every registered source and returns how many
// sources it was attached to.
func (r *Registry) DetachAll(l Listener) int {
	n := 0
	for src := range r.Sources() {
		if src.Detach(l) {
			n++
		}
	}
	return n
}
