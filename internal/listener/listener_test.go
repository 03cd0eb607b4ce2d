package listener

import (
	"testing"

	"github.com/dshills/semtrace/internal/listener/memory"
	"github.com/dshills/semtrace/internal/trace"
)

var schemas = []trace.Schema{
	{ID: 1, Name: "Info", Level: trace.LevelInformational, Keywords: 0x1},
	{ID: 2, Name: "Chatty", Level: trace.LevelVerbose, Keywords: 0x2},
}

func TestRoutes_For(t *testing.T) {
	r := Routes{
		Default: trace.FilterAll,
		Sources: map[string]trace.Filter{"quiet": {Level: trace.LevelError}},
	}

	if got := r.For("quiet"); got.Level != trace.LevelError {
		t.Errorf("For(quiet) = %v, want error level", got)
	}
	if got := r.For("other"); got != trace.FilterAll {
		t.Errorf("For(other) = %v, want FilterAll", got)
	}
}

func TestBind_CurrentAndFutureSources(t *testing.T) {
	reg := trace.NewRegistry()
	early, _ := reg.NewSource("early", schemas)

	rec := memory.New()
	b := Bind(reg, rec, AllRoutes)

	late, _ := reg.NewSource("late", schemas)

	_ = early.Emit(1)
	_ = late.Emit(2)

	if rec.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", rec.Len())
	}

	if n := b.Close(); n != 2 {
		t.Errorf("Close() = %d, want 2", n)
	}
	if early.Enabled() || late.Enabled() {
		t.Error("sources still enabled after Close")
	}

	_, _ = reg.NewSource("after", schemas)
	if src, _ := reg.Lookup("after"); src.Enabled() {
		t.Error("closed binding attached to a new source")
	}
	if b.Close() != 0 {
		t.Error("second Close should report 0")
	}
}

func TestBinding_SetRouter(t *testing.T) {
	reg := trace.NewRegistry()
	src, _ := reg.NewSource("S", schemas)

	rec := memory.New()
	b := Bind(reg, rec, AllRoutes)

	b.SetRouter(Routes{Default: trace.Filter{Level: trace.LevelInformational}})

	_ = src.Emit(1)
	_ = src.Emit(2)

	if names := rec.Names(); len(names) != 1 || names[0] != "Info" {
		t.Errorf("Names() = %v, want [Info]", names)
	}
	if got := b.Router().(Routes).Default.Level; got != trace.LevelInformational {
		t.Errorf("Router().Default.Level = %v", got)
	}
}

type picky struct {
	*memory.Listener
	want string
}

func (p *picky) SelectSource(src *trace.Source) bool {
	return src.Name() == p.want
}

func TestBind_SourceSelector(t *testing.T) {
	reg := trace.NewRegistry()
	a, _ := reg.NewSource("a", schemas)
	b, _ := reg.NewSource("b", schemas)

	l := &picky{Listener: memory.New(), want: "b"}
	Bind(reg, l, AllRoutes)

	if a.Enabled() {
		t.Error("declined source should stay disabled")
	}
	if !b.Enabled() {
		t.Error("selected source should be enabled")
	}
}

// onlyNamed routes a single source.
type onlyNamed string

func (n onlyNamed) Route(src *trace.Source) (trace.Filter, bool) {
	return trace.FilterAll, src.Name() == string(n)
}

func TestBinding_RouterDeclines(t *testing.T) {
	reg := trace.NewRegistry()
	a, _ := reg.NewSource("a", schemas)
	b, _ := reg.NewSource("b", schemas)

	rec := memory.New()
	binding := Bind(reg, rec, onlyNamed("a"))
	if !a.Enabled() || b.Enabled() {
		t.Fatalf("enabled a=%v b=%v, want a only", a.Enabled(), b.Enabled())
	}

	binding.SetRouter(onlyNamed("b"))
	if a.Enabled() || !b.Enabled() {
		t.Errorf("after SetRouter enabled a=%v b=%v, want b only", a.Enabled(), b.Enabled())
	}
}
