package diag

import (
	"testing"

	"github.com/dshills/semtrace/internal/listener/memory"
	"github.com/dshills/semtrace/internal/trace"
)

func TestLog_Filtering(t *testing.T) {
	tests := []struct {
		name   string
		filter trace.Filter
		want   []string
	}{
		{"all", trace.FilterAll, []string{"Message1(a)", "Message2(b, c)"}},
		{"critical level", trace.Filter{Level: trace.LevelCritical}, []string{"Message1(a)"}},
		{"critical keyword", trace.Filter{Level: trace.LevelVerbose, Keywords: KeywordCritical}, []string{"Message2(b, c)"}},
		{"diagnostic keyword", trace.Filter{Level: trace.LevelVerbose, Keywords: KeywordDiagnostic}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(trace.NewRegistry())
			if err != nil {
				t.Fatal(err)
			}
			rec := memory.New()
			_, _ = log.Source().Attach(rec, tt.filter)

			log.Message1("a")
			log.Message2("b", "c")

			got := rec.Lines()
			if len(got) != len(tt.want) {
				t.Fatalf("Lines() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestKeywordNames(t *testing.T) {
	log, _ := New(trace.NewRegistry())
	if k, ok := log.Source().Keyword("diagnostic"); !ok || k != KeywordDiagnostic {
		t.Errorf("Keyword(diagnostic) = %v, %v", k, ok)
	}
}
