// Package format renders trace event payloads.
//
// Message templates use positional placeholders: "{0}" is replaced by the
// first payload value, "{1}" by the second, and so on. Placeholders may
// appear in any order and more than once. Literal braces are written as
// "{{" and "}}".
package format

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// NilMarker is rendered in place of a nil or missing payload value.
	NilMarker = "<nil>"

	// Separator joins values in the raw name(v1, v2) form.
	Separator = ", "
)

// SyntaxError reports a malformed message template.
type SyntaxError struct {
	Template string
	Offset   int
	Msg      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("template %q: offset %d: %s", e.Template, e.Offset, e.Msg)
}

// segment is either a literal run (index < 0) or a placeholder.
type segment struct {
	literal string
	index   int
}

// Template is a parsed message template. It is immutable and safe for
// concurrent use.
type Template struct {
	raw      string
	segments []segment
	arity    int
}

// Parse parses a message template.
func Parse(s string) (*Template, error) {
	t := &Template{raw: s}

	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{literal: lit.String(), index: -1})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return nil, &SyntaxError{Template: s, Offset: i, Msg: "unterminated placeholder"}
			}
			body := s[i+1 : i+1+end]
			n, err := strconv.Atoi(body)
			if err != nil || n < 0 || body == "" || body[0] == '+' || body[0] == '-' {
				return nil, &SyntaxError{Template: s, Offset: i, Msg: fmt.Sprintf("invalid placeholder {%s}", body)}
			}
			flush()
			t.segments = append(t.segments, segment{index: n})
			if n+1 > t.arity {
				t.arity = n + 1
			}
			i += end + 1
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, &SyntaxError{Template: s, Offset: i, Msg: "unmatched '}'"}
		default:
			lit.WriteByte(c)
		}
	}
	flush()

	return t, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) *Template {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the template source.
func (t *Template) String() string {
	return t.raw
}

// Arity returns the number of payload values the template refers to,
// i.e. the highest placeholder index plus one.
func (t *Template) Arity() int {
	return t.arity
}

// Render substitutes values into the template. A placeholder without a
// corresponding value renders as NilMarker.
func (t *Template) Render(values []any) string {
	var b strings.Builder
	for _, seg := range t.segments {
		if seg.index < 0 {
			b.WriteString(seg.literal)
			continue
		}
		if seg.index < len(values) {
			b.WriteString(Value(values[seg.index]))
		} else {
			b.WriteString(NilMarker)
		}
	}
	return b.String()
}

// Value returns the default string form of a payload value.
func Value(v any) string {
	switch x := v.(type) {
	case nil:
		return NilMarker
	case string:
		return x
	default:
		// fmt recovers from panics in String/Error on nil receivers.
		return fmt.Sprint(v)
	}
}

// Raw renders name(v1, v2, ...) using each value's default string form.
func Raw(name string, values []any) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i, v := range values {
		if i > 0 {
			b.WriteString(Separator)
		}
		b.WriteString(Value(v))
	}
	b.WriteByte(')')
	return b.String()
}
