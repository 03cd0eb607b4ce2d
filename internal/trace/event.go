package trace

import (
	"time"

	"github.com/dshills/semtrace/internal/trace/format"
)

// Event is one emitted event as seen by listeners.
//
// An Event is constructed only when at least one listener is interested and
// is shared by every listener that receives it. Listeners must treat it,
// including Payload, as read-only and must not retain Payload beyond the
// callback if the producer may reuse its arguments.
type Event struct {
	Source    *Source
	Schema    *Schema
	Payload   []any
	Timestamp time.Time
}

// SourceName returns the name of the emitting source.
func (e *Event) SourceName() string {
	return e.Source.Name()
}

// ID returns the schema's event id.
func (e *Event) ID() uint16 {
	return e.Schema.ID
}

// Name returns the schema's event name.
func (e *Event) Name() string {
	return e.Schema.Name
}

// Level returns the schema's level.
func (e *Event) Level() Level {
	return e.Schema.Level
}

// Keywords returns the schema's keywords.
func (e *Event) Keywords() Keywords {
	return e.Schema.Keywords
}

// MessageTemplate returns the raw message template, or "" if none.
func (e *Event) MessageTemplate() string {
	return e.Schema.Message
}

// Message returns the payload substituted into the message template, or ""
// if the schema has no template.
func (e *Event) Message() string {
	if t := e.Schema.Template(); t != nil {
		return t.Render(e.Payload)
	}
	return ""
}

// Render returns the human-readable form of the event: the formatted
// message when a template exists, otherwise Name(v1, v2, ...).
func (e *Event) Render() string {
	if t := e.Schema.Template(); t != nil {
		return t.Render(e.Payload)
	}
	return format.Raw(e.Schema.Name, e.Payload)
}

// Arg returns the payload value declared under name.
func (e *Event) Arg(name string) (any, bool) {
	for i, p := range e.Schema.Params {
		if p.Name == name {
			if i < len(e.Payload) {
				return e.Payload[i], true
			}
			return nil, true
		}
	}
	return nil, false
}
