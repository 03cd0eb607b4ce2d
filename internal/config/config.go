// Package config loads semtrace listener configuration.
//
// Configuration comes from three places, each overriding the previous:
//
//  1. Built-in defaults (a console listener on stdout accepting everything)
//  2. A TOML or YAML file, chosen by extension
//  3. SEMTRACE_* environment variables
//
// A file declares listeners and, per listener, a default filter plus
// per-source overrides:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[[listener]]
//	name = "console"
//	type = "console"
//	output = "stdout"
//	header = true
//	level = "verbose"
//	keywords = []
//
//	  [[listener.source]]
//	  name = "FirefoxSync-EventLog"
//	  level = "informational"
//	  keywords = ["requests"]
//
// Keywords are given by name, resolved against each source's declared
// keyword names, or as hex masks ("0x2"). An empty list accepts all
// keywords.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/semtrace/internal/trace"
)

// Listener types.
const (
	TypeConsole = "console"
	TypeSlog    = "slog"
	TypeScript  = "script"
)

// Output targets besides file paths.
const (
	OutputStdout = "stdout"
	OutputStderr = "stderr"
)

// Config is the complete semtrace configuration.
type Config struct {
	Logging   Logging    `toml:"logging" yaml:"logging"`
	Listeners []Listener `toml:"listener" yaml:"listener"`
}

// Logging configures the supervisory logger.
type Logging struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Listener declares one listener.
type Listener struct {
	Name   string `toml:"name" yaml:"name"`
	Type   string `toml:"type" yaml:"type"`
	Output string `toml:"output,omitempty" yaml:"output,omitempty"`

	// Console options.
	Header     bool   `toml:"header,omitempty" yaml:"header,omitempty"`
	LevelTag   bool   `toml:"level_tag,omitempty" yaml:"level_tag,omitempty"`
	Timestamps string `toml:"timestamps,omitempty" yaml:"timestamps,omitempty"`

	// Script is the Lua file for script listeners.
	Script string `toml:"script,omitempty" yaml:"script,omitempty"`

	// Level and Keywords form the default filter.
	Level    string   `toml:"level,omitempty" yaml:"level,omitempty"`
	Keywords []string `toml:"keywords,omitempty" yaml:"keywords,omitempty"`

	Sources []Source `toml:"source,omitempty" yaml:"source,omitempty"`
}

// Source overrides a listener's filter for one source.
type Source struct {
	Name     string   `toml:"name" yaml:"name"`
	Level    string   `toml:"level,omitempty" yaml:"level,omitempty"`
	Keywords []string `toml:"keywords,omitempty" yaml:"keywords,omitempty"`

	// Disabled keeps the listener off this source.
	Disabled bool `toml:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Listeners: []Listener{
			{
				Name:   "console",
				Type:   TypeConsole,
				Output: OutputStdout,
				Header: true,
				Level:  "verbose",
			},
		},
	}
}

// Listener returns the listener with the given name.
func (c *Config) Listener(name string) (*Listener, bool) {
	for i := range c.Listeners {
		if c.Listeners[i].Name == name {
			return &c.Listeners[i], true
		}
	}
	return nil, false
}

// ErrInvalid is wrapped by every ValidationError.
var ErrInvalid = errors.New("invalid configuration")

// ValidationError reports one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

// Validate checks the configuration and returns every problem found,
// joined with errors.Join.
func (c *Config) Validate() error {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		fail("logging.level", "unknown level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		fail("logging.format", "unknown format %q", c.Logging.Format)
	}

	names := make(map[string]bool, len(c.Listeners))
	for i, l := range c.Listeners {
		field := fmt.Sprintf("listener[%d]", i)
		if l.Name == "" {
			fail(field+".name", "must not be empty")
		} else if names[l.Name] {
			fail(field+".name", "duplicate listener %q", l.Name)
		}
		names[l.Name] = true

		switch l.Type {
		case TypeConsole, TypeSlog:
		case TypeScript:
			if l.Script == "" {
				fail(field+".script", "required for script listeners")
			}
		default:
			fail(field+".type", "unknown listener type %q", l.Type)
		}

		if _, err := parseLevel(l.Level); err != nil {
			fail(field+".level", "%v", err)
		}
		if err := checkKeywords(l.Keywords); err != nil {
			fail(field+".keywords", "%v", err)
		}

		for j, s := range l.Sources {
			sfield := fmt.Sprintf("%s.source[%d]", field, j)
			if s.Name == "" {
				fail(sfield+".name", "must not be empty")
			}
			if _, err := parseLevel(s.Level); err != nil {
				fail(sfield+".level", "%v", err)
			}
			if err := checkKeywords(s.Keywords); err != nil {
				fail(sfield+".keywords", "%v", err)
			}
		}
	}

	return errors.Join(errs...)
}

// parseLevel parses a filter level. Empty means verbose.
func parseLevel(s string) (trace.Level, error) {
	if s == "" {
		return trace.LevelVerbose, nil
	}
	return trace.ParseLevel(s)
}
