package script

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/semtrace/internal/listener"
	"github.com/dshills/semtrace/internal/trace"
)

func newSource(t *testing.T, reg *trace.Registry, name string) *trace.Source {
	t.Helper()
	src, err := reg.NewSource(name, []trace.Schema{
		{
			ID:       1,
			Name:     "RequestStart",
			Level:    trace.LevelInformational,
			Keywords: 0x1,
			Params:   []trace.Param{trace.Int("RequestID"), trace.String("Url")},
		},
		{
			ID:       4,
			Name:     "DebugTrace",
			Level:    trace.LevelError,
			Keywords: 0x2,
			Message:  "DebugMessage: {0}",
			Params:   []trace.Param{trace.String("Message")},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return src
}

func TestListener_OnEvent(t *testing.T) {
	code := `
function on_event(e)
  write(string.format("%s/%s id=%d level=%s kw=%d", e.source, e.name, e.id, e.level, e.keywords))
  write("text=" .. e.text .. " msg=" .. e.message)
  write("url=" .. e.args.Url .. " first=" .. tostring(e.payload[1]))
end
`
	var buf bytes.Buffer
	l, err := New(code, &buf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer l.Close()

	src := newSource(t, trace.NewRegistry(), "S")
	_, _ = src.Attach(l, trace.FilterAll)

	if err := src.Emit(1, 42, "/home"); err != nil {
		t.Fatal(err)
	}

	want := "S/RequestStart id=1 level=informational kw=1\n" +
		"text=RequestStart(42, /home) msg=\n" +
		"url=/home first=42\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestListener_Print(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(`function on_event(e) print(e.name, e.id) end`, &buf)
	if err != nil {
		t.Fatal(err)
	}
	src := newSource(t, trace.NewRegistry(), "S")
	_, _ = src.Attach(l, trace.FilterAll)

	_ = src.Emit(4, "boom")

	if got := buf.String(); got != "DebugTrace\t4\n" {
		t.Errorf("output = %q", got)
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		code string
		want error
	}{
		{"no handler", `x = 1`, ErrNoHandler},
		{"syntax", `function on_event(e`, nil},
		{"runtime", `error("fail at load")`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.code, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestListener_Sandbox(t *testing.T) {
	code := `
function on_event(e)
  write(type(io) .. " " .. type(os) .. " " .. type(require) .. " " .. type(loadstring) .. " " .. type(string.format))
end
`
	var buf bytes.Buffer
	l, err := New(code, &buf)
	if err != nil {
		t.Fatal(err)
	}
	src := newSource(t, trace.NewRegistry(), "S")
	_, _ = src.Attach(l, trace.FilterAll)
	_ = src.Emit(4, "x")

	if got := buf.String(); got != "nil nil nil nil function\n" {
		t.Errorf("globals = %q", got)
	}
}

func TestListener_ScriptErrorIsFault(t *testing.T) {
	l, err := New(`function on_event(e) error("bad event " .. e.name) end`, nil)
	if err != nil {
		t.Fatal(err)
	}

	var faults []*trace.ListenerFault
	reg := trace.NewRegistry()
	src, _ := reg.NewSource("S", []trace.Schema{{ID: 1, Name: "E"}},
		trace.WithFaultHandler(func(f *trace.ListenerFault) { faults = append(faults, f) }))
	_, _ = src.Attach(l, trace.FilterAll)

	if err := src.Emit(1); err != nil {
		t.Fatalf("Emit returned %v", err)
	}
	if len(faults) != 1 {
		t.Fatalf("got %d faults, want 1", len(faults))
	}
	if !strings.Contains(faults[0].Error(), "bad event E") {
		t.Errorf("fault = %v", faults[0])
	}
}

func TestListener_Timeout(t *testing.T) {
	l, err := New(`function on_event(e) while true do end end`, nil, WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	src := newSource(t, trace.NewRegistry(), "S")
	_, _ = src.Attach(l, trace.FilterAll)

	done := make(chan struct{})
	go func() {
		_ = src.Emit(4, "spin")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("script call was not interrupted")
	}
}

func TestListener_SelectSource(t *testing.T) {
	code := `
function on_source(name) return name ~= "[DEBUG]" end
function on_event(e) write(e.source) end
`
	var buf bytes.Buffer
	l, err := New(code, &buf)
	if err != nil {
		t.Fatal(err)
	}

	reg := trace.NewRegistry()
	app := newSource(t, reg, "app")
	noisy := newSource(t, reg, "[DEBUG]")
	b := listener.Bind(reg, l, listener.AllRoutes)
	defer b.Close()

	if noisy.Enabled() {
		t.Error("declined source should not be enabled")
	}
	_ = app.Emit(4, "x")
	if got := buf.String(); got != "app\n" {
		t.Errorf("output = %q", got)
	}
}

func TestListener_Closed(t *testing.T) {
	l, err := New(`function on_event(e) end`, nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = l.Close()
	_ = l.Close()

	src := newSource(t, trace.NewRegistry(), "S")
	if err := l.OnEvent(&trace.Event{Source: src}); !errors.Is(err, ErrClosed) {
		t.Errorf("OnEvent after Close = %v, want ErrClosed", err)
	}
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.lua")
	code := `function on_event(e) if e.level == "error" then write(e.text) end end`
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	l, err := NewFromFile(path, &buf)
	if err != nil {
		t.Fatalf("NewFromFile failed: %v", err)
	}
	src := newSource(t, trace.NewRegistry(), "S")
	_, _ = src.Attach(l, trace.FilterAll)

	_ = src.Emit(1, 1, "/quiet")
	_ = src.Emit(4, "Error on page: /home/catalog/121")

	if got := buf.String(); got != "DebugMessage: Error on page: /home/catalog/121\n" {
		t.Errorf("output = %q", got)
	}
}
