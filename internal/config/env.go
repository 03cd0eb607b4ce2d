package config

import (
	"os"
	"strings"
)

// Environment variables read by Loader.
const (
	EnvLogLevel        = "SEMTRACE_LOG_LEVEL"
	EnvLogFormat       = "SEMTRACE_LOG_FORMAT"
	EnvConsoleLevel    = "SEMTRACE_CONSOLE_LEVEL"
	EnvConsoleKeywords = "SEMTRACE_CONSOLE_KEYWORDS"
)

var osLookupEnv = os.LookupEnv

// applyEnv overrides c from the environment. The console variables apply
// to every console listener. An empty SEMTRACE_CONSOLE_KEYWORDS clears the
// keyword list.
func applyEnv(c *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		c.Logging.Format = v
	}

	level, hasLevel := lookup(EnvConsoleLevel)
	keywords, hasKeywords := lookup(EnvConsoleKeywords)
	if !hasLevel && !hasKeywords {
		return
	}

	for i := range c.Listeners {
		l := &c.Listeners[i]
		if l.Type != TypeConsole {
			continue
		}
		if hasLevel && level != "" {
			l.Level = level
		}
		if hasKeywords {
			l.Keywords = splitList(keywords)
		}
	}
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
