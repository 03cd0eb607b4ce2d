package trace

import (
	"errors"
	"testing"
	"time"
)

func TestNewSource_DefinitionErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		schemas []Schema
		want    error
	}{
		{"empty source name", "", nil, ErrInvalidSourceName},
		{"zero id", "S", []Schema{{ID: 0, Name: "A"}}, ErrInvalidID},
		{"empty name", "S", []Schema{{ID: 1}}, ErrInvalidName},
		{"duplicate id", "S", []Schema{{ID: 1, Name: "A"}, {ID: 1, Name: "B"}}, ErrDuplicateID},
		{"duplicate name", "S", []Schema{{ID: 1, Name: "A"}, {ID: 2, Name: "A"}}, ErrDuplicateName},
		{"empty param", "S", []Schema{{ID: 1, Name: "A", Params: []Param{Int("")}}}, ErrInvalidParam},
		{"duplicate param", "S", []Schema{{ID: 1, Name: "A", Params: []Param{Int("x"), String("x")}}}, ErrDuplicateParam},
		{"bad template", "S", []Schema{{ID: 1, Name: "A", Message: "oops {0", Params: []Param{Int("x")}}}, ErrBadTemplate},
		{"template arity", "S", []Schema{{ID: 1, Name: "A", Message: "{0} {1}", Params: []Param{Int("x")}}}, ErrTemplateArity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSource(tt.source, tt.schemas)
			if !errors.Is(err, tt.want) {
				t.Fatalf("NewSource error = %v, want %v", err, tt.want)
			}
			var de *DefinitionError
			if !errors.As(err, &de) {
				t.Errorf("error type = %T, want *DefinitionError", err)
			}
		})
	}
}

func TestNewSource_CopiesSchemas(t *testing.T) {
	params := []Param{Int("a")}
	decl := []Schema{{ID: 1, Name: "A", Params: params}}

	src, err := NewSource("S", decl)
	if err != nil {
		t.Fatal(err)
	}
	params[0].Name = "changed"
	decl[0].Name = "changed"

	sc, ok := src.Schema(1)
	if !ok {
		t.Fatal("Schema(1) not found")
	}
	if sc.Name != "A" || sc.Params[0].Name != "a" {
		t.Errorf("schema mutated through declaration: %+v", sc)
	}
	if _, ok := src.SchemaByName("A"); !ok {
		t.Error("SchemaByName(A) not found")
	}
}

func TestSchema_TemplateMayUseFewerValues(t *testing.T) {
	src, err := NewSource("S", []Schema{
		{ID: 1, Name: "A", Message: "only {1}", Params: []Param{Int("a"), String("b")}},
	})
	if err != nil {
		t.Fatalf("NewSource failed: %v", err)
	}
	sc, _ := src.Schema(1)
	if sc.Template() == nil {
		t.Fatal("expected parsed template")
	}
	if got := sc.ParamNames(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("ParamNames() = %v", got)
	}
}

func TestKind_Accepts(t *testing.T) {
	tests := []struct {
		kind Kind
		v    any
		want bool
	}{
		{KindAny, struct{}{}, true},
		{KindInt, 1, true},
		{KindInt, int64(1), true},
		{KindInt, uint(1), false},
		{KindUint, uint32(1), true},
		{KindFloat, 1.5, true},
		{KindFloat, 1, false},
		{KindString, "s", true},
		{KindString, []byte("s"), false},
		{KindBool, true, true},
		{KindTime, time.Now(), true},
		{KindDuration, time.Second, true},
		{KindDuration, 1, false},
		{KindBytes, []byte("b"), true},
		{KindString, nil, true},
	}

	for _, tt := range tests {
		if got := tt.kind.Accepts(tt.v); got != tt.want {
			t.Errorf("%s.Accepts(%T) = %v, want %v", tt.kind, tt.v, got, tt.want)
		}
	}
}
