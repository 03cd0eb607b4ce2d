package manifest

import (
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/semtrace/internal/sources/diag"
	"github.com/dshills/semtrace/internal/sources/firefox"
	"github.com/dshills/semtrace/internal/trace"
)

func newRegistry(t *testing.T) *trace.Registry {
	t.Helper()
	reg := trace.NewRegistry()
	if _, err := firefox.New(reg); err != nil {
		t.Fatal(err)
	}
	if _, err := diag.New(reg); err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestBuild(t *testing.T) {
	m := Build(newRegistry(t))

	if len(m.Sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(m.Sources))
	}
	ff := m.Sources[0]
	if ff.Name != firefox.SourceName {
		t.Errorf("first source = %q, want %q", ff.Name, firefox.SourceName)
	}
	if len(ff.Events) != 4 {
		t.Fatalf("got %d events, want 4", len(ff.Events))
	}

	start := ff.Events[0]
	if start.Name != "RequestStart" || start.Level != "informational" || start.Opcode != "start" ||
		start.Channel != "admin" || start.Task != firefox.TaskRequest || start.Keywords != "0x1" {
		t.Errorf("RequestStart = %+v", start)
	}
	if len(start.Params) != 2 || start.Params[1] != (Param{Name: "Url", Kind: "string"}) {
		t.Errorf("RequestStart params = %+v", start.Params)
	}

	if got := ff.Keywords; len(got) != 2 || got[0].Name != "requests" || got[1].Mask != "0x2" {
		t.Errorf("keywords = %+v", got)
	}

	dbg := m.Sources[1]
	if dbg.Events[0].Opcode != "" || dbg.Events[0].Level != "logalways" {
		t.Errorf("Message1 = %+v", dbg.Events[0])
	}
}

func TestMarshal(t *testing.T) {
	m := Build(newRegistry(t))

	t.Run("yaml", func(t *testing.T) {
		data, err := m.Marshal(FormatYAML)
		if err != nil {
			t.Fatal(err)
		}
		var back Manifest
		if err := yaml.Unmarshal(data, &back); err != nil {
			t.Fatalf("output is not valid YAML: %v", err)
		}
		if len(back.Sources) != 2 || back.Sources[1].Name != diag.SourceName {
			t.Errorf("decoded sources = %+v", back.Sources)
		}
		if !strings.Contains(string(data), "Entering Phase {1} for request {0}") {
			t.Errorf("message template missing from YAML")
		}
	})

	t.Run("toml", func(t *testing.T) {
		data, err := m.Marshal(FormatTOML)
		if err != nil {
			t.Fatal(err)
		}
		var back Manifest
		if err := toml.Unmarshal(data, &back); err != nil {
			t.Fatalf("output is not valid TOML: %v", err)
		}
		if got := back.Sources[0].Events[2].Name; got != "RequestStop" {
			t.Errorf("third event = %q, want RequestStop", got)
		}
	})

	if _, err := m.Marshal("json"); err == nil {
		t.Error("expected error for unknown format")
	}
}
