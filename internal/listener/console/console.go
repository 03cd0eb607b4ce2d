// Package console renders trace events as text lines on an io.Writer.
package console

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"github.com/dshills/semtrace/internal/listener"
	"github.com/dshills/semtrace/internal/trace"
	"github.com/dshills/semtrace/internal/trace/format"
)

// DefaultTimeLayout is used by WithTimestamps when no layout is given.
const DefaultTimeLayout = "15:04:05.000"

// Listener writes one line per event. Writes are serialized by a mutex
// owned by the listener, so lines from concurrent producers never
// interleave.
//
// Listener also implements trace.SourceObserver: passed to
// Registry.Observe it attaches itself to every source using its routes.
type Listener struct {
	mu sync.Mutex
	w  *bufio.Writer

	header     bool
	timeLayout string
	levelTag   bool
	routes     listener.Routes
}

// Option configures a Listener.
type Option func(*Listener)

// WithHeader prefixes each line with "  Event <Name> " and renders
// events without a message as "(v1, v2).".
func WithHeader() Option {
	return func(l *Listener) {
		l.header = true
	}
}

// WithTimestamps prefixes each line with the event time. An empty layout
// selects DefaultTimeLayout.
func WithTimestamps(layout string) Option {
	return func(l *Listener) {
		if layout == "" {
			layout = DefaultTimeLayout
		}
		l.timeLayout = layout
	}
}

// WithLevelTag prefixes each line with the event level, e.g. "[error]".
func WithLevelTag() Option {
	return func(l *Listener) {
		l.levelTag = true
	}
}

// WithFilter sets the filter used for sources without their own entry.
func WithFilter(f trace.Filter) Option {
	return func(l *Listener) {
		l.routes.Default = f
	}
}

// WithSourceFilter sets the filter used for one source.
func WithSourceFilter(source string, f trace.Filter) Option {
	return func(l *Listener) {
		if l.routes.Sources == nil {
			l.routes.Sources = make(map[string]trace.Filter)
		}
		l.routes.Sources[source] = f
	}
}

// New creates a console listener writing to w. By default it accepts
// every event from every source it observes.
func New(w io.Writer, opts ...Option) *Listener {
	l := &Listener{
		w:      bufio.NewWriter(w),
		routes: listener.AllRoutes.Clone(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Routes returns the listener's configured routes.
func (l *Listener) Routes() listener.Routes {
	return l.routes.Clone()
}

// OnSourceCreated implements trace.SourceObserver.
func (l *Listener) OnSourceCreated(src *trace.Source) {
	_, _ = l.routes.Attach(src, l)
}

// OnEvent implements trace.Listener.
func (l *Listener) OnEvent(e *trace.Event) error {
	line := l.Format(e)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.w.WriteString(line); err != nil {
		return err
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return err
	}
	return l.w.Flush()
}

// Format returns the line written for e, without the trailing newline.
func (l *Listener) Format(e *trace.Event) string {
	var b strings.Builder

	if l.timeLayout != "" {
		b.WriteString(e.Timestamp.Format(l.timeLayout))
		b.WriteByte(' ')
	}
	if l.levelTag {
		b.WriteByte('[')
		b.WriteString(e.Level().String())
		b.WriteString("] ")
	}

	if !l.header {
		b.WriteString(e.Render())
		return b.String()
	}

	b.WriteString("  Event ")
	b.WriteString(e.Name())
	b.WriteByte(' ')
	if e.Schema.Template() != nil {
		b.WriteString(e.Message())
	} else {
		b.WriteByte('(')
		for i, v := range e.Payload {
			if i > 0 {
				b.WriteString(format.Separator)
			}
			b.WriteString(format.Value(v))
		}
		b.WriteString(").")
	}
	return b.String()
}

// Flush flushes any buffered output.
func (l *Listener) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Flush()
}
