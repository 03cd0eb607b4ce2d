// Package script provides a listener whose behavior is defined by a Lua
// script.
//
// A script must define a global function on_event(e). The event table has
// the fields source, name, id, level, keywords, message, text, timestamp,
// payload (an array) and args (keyed by parameter name). Scripts produce
// output with write(s), which writes s and a newline to the listener's
// writer; print is redirected to the same writer.
//
// A script may also define on_source(name). Returning false declines the
// source when the listener is bound to a registry.
//
//	function on_source(name)
//	  return name ~= "[DEBUG]"
//	end
//
//	function on_event(e)
//	  if e.level == "error" then
//	    write(string.format("%s/%s: %s", e.source, e.name, e.text))
//	  end
//	end
//
// Only the base, table, string and math libraries are available.
package script

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/semtrace/internal/trace"
)

// Errors returned by script listeners.
var (
	// ErrNoHandler is returned when a script does not define on_event.
	ErrNoHandler = errors.New("script does not define on_event")

	// ErrClosed is returned for events delivered after Close.
	ErrClosed = errors.New("script listener is closed")
)

// DefaultTimeout bounds each call into the script.
const DefaultTimeout = time.Second

// Listener runs a Lua script for every event. The Lua state is not safe
// for concurrent use, so callbacks are serialized.
type Listener struct {
	mu     sync.Mutex
	L      *lua.LState
	out    io.Writer
	name   string
	closed bool

	timeout time.Duration
}

// Option configures a Listener.
type Option func(*Listener)

// WithName sets the chunk name used in Lua error messages.
func WithName(name string) Option {
	return func(l *Listener) {
		l.name = name
	}
}

// WithTimeout bounds each call into the script. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(l *Listener) {
		l.timeout = d
	}
}

// New compiles and runs code, then returns a listener writing to w.
func New(code string, w io.Writer, opts ...Option) (*Listener, error) {
	l := &Listener{
		L:       newState(),
		out:     w,
		name:    "script",
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.install()

	fn, err := l.L.Load(strings.NewReader(code), l.name)
	if err != nil {
		l.L.Close()
		return nil, fmt.Errorf("%s: %w", l.name, err)
	}
	if _, err := call(l.L, l.timeout, fn, 0); err != nil {
		l.L.Close()
		return nil, fmt.Errorf("%s: %w", l.name, err)
	}
	if _, ok := function(l.L, "on_event"); !ok {
		l.L.Close()
		return nil, fmt.Errorf("%s: %w", l.name, ErrNoHandler)
	}
	return l, nil
}

// NewFromFile loads the script at path.
func NewFromFile(path string, w io.Writer, opts ...Option) (*Listener, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(string(code), w, append([]Option{WithName(path)}, opts...)...)
}

// install registers the Go functions visible to scripts.
func (l *Listener) install() {
	l.L.SetGlobal("write", l.L.NewFunction(func(L *lua.LState) int {
		s := L.CheckString(1)
		if err := l.writeLine(s); err != nil {
			L.RaiseError("write: %v", err)
		}
		return 0
	}))
	l.L.SetGlobal("print", l.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, n)
		for i := 1; i <= n; i++ {
			parts[i-1] = L.ToStringMeta(L.Get(i)).String()
		}
		if err := l.writeLine(strings.Join(parts, "\t")); err != nil {
			L.RaiseError("print: %v", err)
		}
		return 0
	}))
}

func (l *Listener) writeLine(s string) error {
	if l.out == nil {
		return nil
	}
	_, err := io.WriteString(l.out, s+"\n")
	return err
}

// OnEvent implements trace.Listener.
func (l *Listener) OnEvent(e *trace.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}

	fn, ok := function(l.L, "on_event")
	if !ok {
		return fmt.Errorf("%s: %w", l.name, ErrNoHandler)
	}
	if _, err := call(l.L, l.timeout, fn, 0, eventTable(l.L, e)); err != nil {
		return fmt.Errorf("%s: %w", l.name, err)
	}
	return nil
}

// SelectSource calls the script's on_source function, if any. A script
// error declines the source.
func (l *Listener) SelectSource(src *trace.Source) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false
	}

	fn, ok := function(l.L, "on_source")
	if !ok {
		return true
	}
	ret, err := call(l.L, l.timeout, fn, 1, lua.LString(src.Name()))
	if err != nil {
		return false
	}
	return ret[0] != lua.LFalse
}

// Close releases the Lua state.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	l.L.Close()
	return nil
}
