// Package slogsink forwards trace events to a log/slog handler.
package slogsink

import (
	"context"
	"log/slog"

	"github.com/dshills/semtrace/internal/trace"
)

// LevelCritical is the slog level used for critical events.
const LevelCritical = slog.LevelError + 4

// Level maps a trace level to a slog level. LogAlways events are logged at
// Info; they are unconditional in trace but carry no severity of their own.
func Level(l trace.Level) slog.Level {
	switch l {
	case trace.LevelCritical:
		return LevelCritical
	case trace.LevelError:
		return slog.LevelError
	case trace.LevelWarning:
		return slog.LevelWarn
	case trace.LevelVerbose:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// Listener converts each event into a slog.Record and passes it to a
// handler. slog handlers are safe for concurrent use, so Listener needs no
// lock of its own.
type Listener struct {
	handler slog.Handler
	group   string
}

// Option configures a Listener.
type Option func(*Listener)

// WithArgsGroup nests payload attributes under a group.
func WithArgsGroup(name string) Option {
	return func(l *Listener) {
		l.group = name
	}
}

// New creates a listener that writes to h.
func New(h slog.Handler, opts ...Option) *Listener {
	l := &Listener{handler: h}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnEvent implements trace.Listener.
func (l *Listener) OnEvent(e *trace.Event) error {
	ctx := context.Background()
	level := Level(e.Level())
	if !l.handler.Enabled(ctx, level) {
		return nil
	}

	r := slog.NewRecord(e.Timestamp, level, e.Render(), 0)
	r.AddAttrs(
		slog.String("source", e.SourceName()),
		slog.String("event", e.Name()),
		slog.Int("id", int(e.ID())),
		slog.String("keywords", e.Keywords().String()),
	)

	args := make([]slog.Attr, 0, len(e.Schema.Params))
	for i, p := range e.Schema.Params {
		var v any
		if i < len(e.Payload) {
			v = e.Payload[i]
		}
		args = append(args, slog.Any(p.Name, v))
	}
	if l.group != "" {
		r.AddAttrs(slog.Attr{Key: l.group, Value: slog.GroupValue(args...)})
	} else {
		r.AddAttrs(args...)
	}

	return l.handler.Handle(ctx, r)
}
