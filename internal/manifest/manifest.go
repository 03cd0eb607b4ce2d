// Package manifest describes the event schemas of a registry as a
// document, for tooling that needs to know what a process can emit.
package manifest

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/semtrace/internal/trace"
)

// Manifest lists every registered source.
type Manifest struct {
	Sources []Source `toml:"source" yaml:"sources"`
}

// Source describes one event source.
type Source struct {
	Name     string    `toml:"name" yaml:"name"`
	Keywords []Keyword `toml:"keyword,omitempty" yaml:"keywords,omitempty"`
	Events   []Event   `toml:"event,omitempty" yaml:"events,omitempty"`
}

// Keyword is a named keyword bit.
type Keyword struct {
	Name string `toml:"name" yaml:"name"`
	Mask string `toml:"mask" yaml:"mask"`
}

// Event describes one schema.
type Event struct {
	ID       uint16  `toml:"id" yaml:"id"`
	Name     string  `toml:"name" yaml:"name"`
	Level    string  `toml:"level" yaml:"level"`
	Keywords string  `toml:"keywords" yaml:"keywords"`
	Message  string  `toml:"message,omitempty" yaml:"message,omitempty"`
	Task     uint16  `toml:"task,omitempty" yaml:"task,omitempty"`
	Opcode   string  `toml:"opcode,omitempty" yaml:"opcode,omitempty"`
	Channel  string  `toml:"channel,omitempty" yaml:"channel,omitempty"`
	Params   []Param `toml:"param,omitempty" yaml:"params,omitempty"`
}

// Param describes one declared parameter.
type Param struct {
	Name string `toml:"name" yaml:"name"`
	Kind string `toml:"kind" yaml:"kind"`
}

// Build describes every source registered with reg at the time of the
// call, in registration order.
func Build(reg *trace.Registry) *Manifest {
	m := &Manifest{}
	for src := range reg.Sources() {
		m.Sources = append(m.Sources, Describe(src))
	}
	return m
}

// Describe describes a single source.
func Describe(src *trace.Source) Source {
	out := Source{Name: src.Name()}

	for name, mask := range src.KeywordNames() {
		out.Keywords = append(out.Keywords, Keyword{Name: name, Mask: mask.String()})
	}
	slices.SortFunc(out.Keywords, func(a, b Keyword) int {
		return cmp.Or(cmp.Compare(len(a.Mask), len(b.Mask)), cmp.Compare(a.Mask, b.Mask), cmp.Compare(a.Name, b.Name))
	})

	for _, sc := range src.Schemas() {
		ev := Event{
			ID:       sc.ID,
			Name:     sc.Name,
			Level:    sc.Level.String(),
			Keywords: sc.Keywords.String(),
			Message:  sc.Message,
			Task:     sc.Task,
			Channel:  sc.Channel.String(),
		}
		if sc.Opcode != trace.OpcodeInfo || sc.Task != 0 {
			ev.Opcode = sc.Opcode.String()
		}
		for _, p := range sc.Params {
			ev.Params = append(ev.Params, Param{Name: p.Name, Kind: p.Kind.String()})
		}
		out.Events = append(out.Events, ev)
	}
	return out
}

// Formats accepted by Marshal.
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Marshal encodes m as YAML or TOML.
func (m *Manifest) Marshal(format string) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatTOML:
		return toml.Marshal(m)
	default:
		return nil, fmt.Errorf("unknown manifest format %q", format)
	}
}
