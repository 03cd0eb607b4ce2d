package trace

import (
	"fmt"
	"time"

	"github.com/dshills/semtrace/internal/trace/format"
)

// Kind is the declared type of an event parameter.
type Kind uint8

const (
	KindAny Kind = iota
	KindInt
	KindUint
	KindFloat
	KindString
	KindBool
	KindTime
	KindDuration
	KindBytes
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindDuration:
		return "duration"
	case KindBytes:
		return "bytes"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Accepts reports whether v may be passed for a parameter of this kind.
// A nil value is accepted for every kind.
func (k Kind) Accepts(v any) bool {
	if v == nil {
		return true
	}
	switch k {
	case KindAny:
		return true
	case KindInt:
		switch v.(type) {
		case int, int8, int16, int32, int64:
			return true
		}
	case KindUint:
		switch v.(type) {
		case uint, uint8, uint16, uint32, uint64, uintptr:
			return true
		}
	case KindFloat:
		switch v.(type) {
		case float32, float64:
			return true
		}
	case KindString:
		_, ok := v.(string)
		return ok
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindTime:
		_, ok := v.(time.Time)
		return ok
	case KindDuration:
		_, ok := v.(time.Duration)
		return ok
	case KindBytes:
		_, ok := v.([]byte)
		return ok
	}
	return false
}

// Param declares one event parameter.
type Param struct {
	Name string
	Kind Kind
}

// Parameter constructors for schema tables.
func Int(name string) Param      { return Param{Name: name, Kind: KindInt} }
func Uint(name string) Param     { return Param{Name: name, Kind: KindUint} }
func Float(name string) Param    { return Param{Name: name, Kind: KindFloat} }
func String(name string) Param   { return Param{Name: name, Kind: KindString} }
func Bool(name string) Param     { return Param{Name: name, Kind: KindBool} }
func Time(name string) Param     { return Param{Name: name, Kind: KindTime} }
func Duration(name string) Param { return Param{Name: name, Kind: KindDuration} }
func Bytes(name string) Param    { return Param{Name: name, Kind: KindBytes} }
func Any(name string) Param      { return Param{Name: name, Kind: KindAny} }

// Schema is the static definition of one event type.
//
// Schemas are declared as plain values and handed to NewSource, which
// validates them and keeps private copies. The copies returned by a Source
// must not be modified.
type Schema struct {
	// ID is unique within the owning source and must be positive.
	ID uint16

	// Name is unique within the owning source.
	Name string

	Level    Level
	Keywords Keywords

	// Message is an optional template with positional placeholders
	// ("{0}", "{1}", ...). Empty means listeners render raw values.
	Message string

	// Params are the declared payload values in emission order.
	Params []Param

	// Task, Opcode and Channel are descriptive metadata for manifests.
	Task    uint16
	Opcode  Opcode
	Channel Channel

	template *format.Template
}

// Template returns the parsed message template, or nil when the schema has
// no message.
func (s *Schema) Template() *format.Template {
	return s.template
}

// ParamNames returns the declared parameter names in order.
func (s *Schema) ParamNames() []string {
	names := make([]string, len(s.Params))
	for i, p := range s.Params {
		names[i] = p.Name
	}
	return names
}

// compile validates the schema in isolation and returns a private copy
// with its template parsed. Uniqueness across a source is checked by the
// caller.
func (s Schema) compile(source string) (*Schema, error) {
	fail := func(err error) (*Schema, error) {
		return nil, &DefinitionError{Source: source, ID: s.ID, Name: s.Name, Err: err}
	}

	if s.ID == 0 {
		return fail(ErrInvalidID)
	}
	if s.Name == "" {
		return fail(ErrInvalidName)
	}

	seen := make(map[string]struct{}, len(s.Params))
	for _, p := range s.Params {
		if p.Name == "" {
			return fail(ErrInvalidParam)
		}
		if _, dup := seen[p.Name]; dup {
			return fail(fmt.Errorf("%w: %s", ErrDuplicateParam, p.Name))
		}
		seen[p.Name] = struct{}{}
	}

	out := s
	out.Params = append([]Param(nil), s.Params...)

	if s.Message != "" {
		tmpl, err := format.Parse(s.Message)
		if err != nil {
			return fail(fmt.Errorf("%w: %w", ErrBadTemplate, err))
		}
		if tmpl.Arity() > len(s.Params) {
			return fail(fmt.Errorf("%w: template uses %d, schema declares %d", ErrTemplateArity, tmpl.Arity(), len(s.Params)))
		}
		out.template = tmpl
	}

	return &out, nil
}

// check validates a payload against the declared parameters.
func (s *Schema) check(source string, values []any) error {
	if len(values) != len(s.Params) {
		return &PayloadError{
			Source: source,
			Event:  s.Name,
			ID:     s.ID,
			Index:  -1,
			Want:   fmt.Sprint(len(s.Params)),
			Got:    fmt.Sprint(len(values)),
			Err:    ErrArity,
		}
	}
	for i, p := range s.Params {
		if !p.Kind.Accepts(values[i]) {
			return &PayloadError{
				Source: source,
				Event:  s.Name,
				ID:     s.ID,
				Index:  i,
				Want:   p.Kind.String(),
				Got:    fmt.Sprintf("%T", values[i]),
				Err:    ErrType,
			}
		}
	}
	return nil
}
