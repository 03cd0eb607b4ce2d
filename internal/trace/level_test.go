package trace

import "testing"

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"verbose", LevelVerbose, false},
		{"DEBUG", LevelVerbose, false},
		{" info ", LevelInformational, false},
		{"Warning", LevelWarning, false},
		{"err", LevelError, false},
		{"critical", LevelCritical, false},
		{"logalways", LevelLogAlways, false},
		{"loud", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevel_StringRoundTrip(t *testing.T) {
	for l := LevelLogAlways; l <= LevelVerbose; l++ {
		got, err := ParseLevel(l.String())
		if err != nil || got != l {
			t.Errorf("ParseLevel(%q) = %v, %v", l.String(), got, err)
		}
	}
}

func TestFilter_Accepts(t *testing.T) {
	tests := []struct {
		name     string
		filter   Filter
		level    Level
		keywords Keywords
		want     bool
	}{
		{"all accepts verbose", FilterAll, LevelVerbose, 0x80, true},
		{"all accepts no keywords", FilterAll, LevelInformational, 0, true},
		{"level too verbose", Filter{Level: LevelError}, LevelWarning, 0x1, false},
		{"level equal", Filter{Level: LevelError}, LevelError, 0x1, true},
		{"more severe", Filter{Level: LevelError}, LevelCritical, 0x1, true},
		{"logalways passes any threshold", Filter{Level: LevelCritical, Keywords: 0x1}, LevelLogAlways, 0x1, true},
		{"keyword overlap", Filter{Level: LevelVerbose, Keywords: 0x3}, LevelVerbose, 0x2, true},
		{"keyword disjoint", Filter{Level: LevelVerbose, Keywords: 0x1}, LevelVerbose, 0x2, false},
		{"untagged event under mask", Filter{Level: LevelVerbose, Keywords: 0x1}, LevelVerbose, 0, false},
		{"logalways filter is strict", Filter{Level: LevelLogAlways}, LevelCritical, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Accepts(tt.level, tt.keywords); got != tt.want {
				t.Errorf("Accepts(%v, %v) = %v, want %v", tt.level, tt.keywords, got, tt.want)
			}
		})
	}
}

func TestKeywords(t *testing.T) {
	k := Keywords(0x5)
	if !k.Has(0x4) || k.Has(0x2) {
		t.Errorf("Has mismatch for %v", k)
	}
	if k.String() != "0x5" {
		t.Errorf("String() = %q, want 0x5", k.String())
	}
}
