// Package memory provides a listener that records events in memory.
package memory

import (
	"sync"

	"github.com/dshills/semtrace/internal/trace"
)

// Record is one received event.
type Record struct {
	Event *trace.Event
	Text  string
}

// Listener keeps every event it receives. It is safe for concurrent use.
type Listener struct {
	mu      sync.Mutex
	records []Record
	limit   int
}

// Option configures a Listener.
type Option func(*Listener)

// WithLimit keeps at most n records, discarding the oldest. Zero means no
// limit.
func WithLimit(n int) Option {
	return func(l *Listener) {
		if n > 0 {
			l.limit = n
		}
	}
}

// New creates an empty recording listener.
func New(opts ...Option) *Listener {
	l := &Listener{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnEvent implements trace.Listener.
func (l *Listener) OnEvent(e *trace.Event) error {
	text := e.Render()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, Record{Event: e, Text: text})
	if l.limit > 0 && len(l.records) > l.limit {
		l.records = append(l.records[:0:0], l.records[len(l.records)-l.limit:]...)
	}
	return nil
}

// Events returns the recorded events in arrival order.
func (l *Listener) Events() []*trace.Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*trace.Event, len(l.records))
	for i, r := range l.records {
		out[i] = r.Event
	}
	return out
}

// Lines returns the rendered text of each recorded event.
func (l *Listener) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.records))
	for i, r := range l.records {
		out[i] = r.Text
	}
	return out
}

// Names returns the event names in arrival order.
func (l *Listener) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.records))
	for i, r := range l.records {
		out[i] = r.Event.Name()
	}
	return out
}

// Len returns the number of recorded events.
func (l *Listener) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Reset discards all records.
func (l *Listener) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
}
