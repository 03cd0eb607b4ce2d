// Package firefox defines the "FirefoxSync-EventLog" event source, which
// traces the processing of web requests.
package firefox

import (
	"github.com/dshills/semtrace/internal/trace"
)

// SourceName is the registered name of the source.
const SourceName = "FirefoxSync-EventLog"

// Keywords.
const (
	KeywordRequests trace.Keywords = 0x1
	KeywordDebug    trace.Keywords = 0x2
)

// TaskRequest groups the request lifecycle events.
const TaskRequest uint16 = 1

// Event ids.
const (
	EventRequestStart uint16 = 1
	EventRequestPhase uint16 = 2
	EventRequestStop  uint16 = 3
	EventDebugTrace   uint16 = 4
)

// Schemas returns the source's event definitions.
func Schemas() []trace.Schema {
	return []trace.Schema{
		{
			ID:       EventRequestStart,
			Name:     "RequestStart",
			Level:    trace.LevelInformational,
			Keywords: KeywordRequests,
			Message:  "Start processing request\n\t*** {0} ***\nfor URL\n\t=== {1} ===",
			Params:   []trace.Param{trace.Int("RequestID"), trace.String("Url")},
			Task:     TaskRequest,
			Opcode:   trace.OpcodeStart,
			Channel:  trace.ChannelAdmin,
		},
		{
			ID:       EventRequestPhase,
			Name:     "RequestPhase",
			Level:    trace.LevelVerbose,
			Keywords: KeywordRequests,
			Message:  "Entering Phase {1} for request {0}",
			Params:   []trace.Param{trace.Int("RequestID"), trace.String("PhaseName")},
			Task:     TaskRequest,
			Opcode:   trace.OpcodeInfo,
			Channel:  trace.ChannelAnalytic,
		},
		{
			ID:       EventRequestStop,
			Name:     "RequestStop",
			Level:    trace.LevelInformational,
			Keywords: KeywordRequests,
			Message:  "Stop processing request\n\t*** {0} ***",
			Params:   []trace.Param{trace.Int("RequestID")},
			Task:     TaskRequest,
			Opcode:   trace.OpcodeStop,
			Channel:  trace.ChannelAdmin,
		},
		{
			ID:       EventDebugTrace,
			Name:     "DebugTrace",
			Level:    trace.LevelInformational,
			Keywords: KeywordRequests,
			Message:  "DebugMessage: {0}",
			Params:   []trace.Param{trace.String("Message")},
			Channel:  trace.ChannelAdmin,
		},
	}
}

// KeywordNames maps configuration names to keyword bits.
func KeywordNames() map[string]trace.Keywords {
	return map[string]trace.Keywords{
		"requests": KeywordRequests,
		"debug":    KeywordDebug,
	}
}

// Log is the typed producer API for the source.
type Log struct {
	src *trace.Source
}

// New creates the source and registers it with reg.
func New(reg *trace.Registry, opts ...trace.SourceOption) (*Log, error) {
	opts = append([]trace.SourceOption{trace.WithKeywordNames(KeywordNames())}, opts...)
	src, err := reg.NewSource(SourceName, Schemas(), opts...)
	if err != nil {
		return nil, err
	}
	return &Log{src: src}, nil
}

// Source returns the underlying event source.
func (l *Log) Source() *trace.Source {
	return l.src
}

// RequestStart marks the beginning of request processing.
func (l *Log) RequestStart(requestID int, url string) {
	if l.src.IsEnabledFor(EventRequestStart) {
		l.src.MustEmit(EventRequestStart, requestID, url)
	}
}

// RequestPhase marks entry into a processing phase.
func (l *Log) RequestPhase(requestID int, phase string) {
	if l.src.IsEnabledFor(EventRequestPhase) {
		l.src.MustEmit(EventRequestPhase, requestID, phase)
	}
}

// RequestStop marks the end of request processing.
func (l *Log) RequestStop(requestID int) {
	if l.src.IsEnabledFor(EventRequestStop) {
		l.src.MustEmit(EventRequestStop, requestID)
	}
}

// DebugTrace records a free-form diagnostic message.
func (l *Log) DebugTrace(message string) {
	if l.src.IsEnabledFor(EventDebugTrace) {
		l.src.MustEmit(EventDebugTrace, message)
	}
}
