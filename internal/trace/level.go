package trace

import (
	"fmt"
	"strconv"
	"strings"
)

// Level is an event severity. Lower values are more urgent.
type Level uint8

const (
	// LevelLogAlways events pass every level threshold.
	LevelLogAlways Level = iota
	LevelCritical
	LevelError
	LevelWarning
	LevelInformational
	LevelVerbose
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelLogAlways:
		return "logalways"
	case LevelCritical:
		return "critical"
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelInformational:
		return "informational"
	case LevelVerbose:
		return "verbose"
	default:
		return "level(" + strconv.Itoa(int(l)) + ")"
	}
}

// ParseLevel parses a level name. Matching is case-insensitive and accepts
// the common short forms (warn, info, debug).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "logalways", "always":
		return LevelLogAlways, nil
	case "critical", "crit":
		return LevelCritical, nil
	case "error", "err":
		return LevelError, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "informational", "info":
		return LevelInformational, nil
	case "verbose", "debug":
		return LevelVerbose, nil
	default:
		return 0, fmt.Errorf("unknown level %q", s)
	}
}

// Keywords is a bitmask of up to 64 event categories.
type Keywords uint64

// KeywordsAll in a Filter disables keyword filtering.
const KeywordsAll Keywords = 0

// Has reports whether any bit of mask is set in k.
func (k Keywords) Has(mask Keywords) bool {
	return k&mask != 0
}

// String renders the mask as hex.
func (k Keywords) String() string {
	return "0x" + strconv.FormatUint(uint64(k), 16)
}

// Opcode marks an event's role within its task.
type Opcode uint8

const (
	OpcodeInfo Opcode = iota
	OpcodeStart
	OpcodeStop
)

// String returns the opcode name.
func (o Opcode) String() string {
	switch o {
	case OpcodeInfo:
		return "info"
	case OpcodeStart:
		return "start"
	case OpcodeStop:
		return "stop"
	default:
		return "opcode(" + strconv.Itoa(int(o)) + ")"
	}
}

// Channel names the audience an event is intended for.
type Channel uint8

const (
	ChannelNone Channel = iota
	ChannelAdmin
	ChannelOperational
	ChannelAnalytic
	ChannelDebug
)

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case ChannelNone:
		return ""
	case ChannelAdmin:
		return "admin"
	case ChannelOperational:
		return "operational"
	case ChannelAnalytic:
		return "analytic"
	case ChannelDebug:
		return "debug"
	default:
		return "channel(" + strconv.Itoa(int(c)) + ")"
	}
}

// Filter is a listener's interest in a source.
//
// An event passes when its level is at or above the filter's severity
// (numerically <=) and, unless Keywords is KeywordsAll, it shares at least
// one keyword bit with the filter.
type Filter struct {
	Level    Level
	Keywords Keywords
}

// FilterAll accepts every event.
var FilterAll = Filter{Level: LevelVerbose, Keywords: KeywordsAll}

// Accepts reports whether an event with the given level and keywords passes.
func (f Filter) Accepts(level Level, keywords Keywords) bool {
	if level > f.Level {
		return false
	}
	return f.Keywords == KeywordsAll || keywords&f.Keywords != 0
}
