// Package diag defines the "[DEBUG]" source used to exercise level and
// keyword filtering.
package diag

import "github.com/dshills/semtrace/internal/trace"

const SourceName = "[DEBUG]"

const (
	KeywordDebug      trace.Keywords = 0x1
	KeywordCritical   trace.Keywords = 0x2
	KeywordDiagnostic trace.Keywords = 0x4
)

const (
	EventMessage1 uint16 = 1
	EventMessage2 uint16 = 2
)

func Schemas() []trace.Schema {
	return []trace.Schema{
		{
			ID:       EventMessage1,
			Name:     "Message1",
			Level:    trace.LevelLogAlways,
			Keywords: KeywordDebug,
			Params:   []trace.Param{trace.String("Name")},
		},
		{
			ID:       EventMessage2,
			Name:     "Message2",
			Level:    trace.LevelVerbose,
			Keywords: KeywordCritical,
			Params:   []trace.Param{trace.String("Name1"), trace.String("Name2")},
		},
	}
}

func KeywordNames() map[string]trace.Keywords {
	return map[string]trace.Keywords{
		"debug":      KeywordDebug,
		"critical":   KeywordCritical,
		"diagnostic": KeywordDiagnostic,
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

func (l *Log) Source() *trace.Source {
	return l.src
}

func (l *Log) Message1(name string) {
	if l.src.IsEnabledFor(EventMessage1) {
		l.src.MustEmit(EventMessage1, name)
	}
}

func (l *Log) Message2(name1, name2 string) {
	if l.src.IsEnabledFor(EventMessage2) {
		l.src.MustEmit(EventMessage2, name1, name2)
	}
}
