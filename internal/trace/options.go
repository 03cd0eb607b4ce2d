package trace

import (
	"log/slog"
	"maps"
	"time"
)

// FaultHandler receives listener faults raised during dispatch.
type FaultHandler func(f *ListenerFault)

// SourceOption configures a Source.
type SourceOption func(*sourceConfig)

type sourceConfig struct {
	keywordNames map[string]Keywords
	faultHandler FaultHandler
	logger       *slog.Logger
	now          func() time.Time
	slow         time.Duration
}

func defaultSourceConfig() sourceConfig {
	return sourceConfig{
		now: time.Now,
	}
}

// WithKeywordNames names the source's keyword bits. Names are used by
// configuration files and manifests.
func WithKeywordNames(names map[string]Keywords) SourceOption {
	return func(c *sourceConfig) {
		c.keywordNames = maps.Clone(names)
	}
}

// WithFaultHandler replaces the default fault handler, which logs faults
// at error level.
func WithFaultHandler(h FaultHandler) SourceOption {
	return func(c *sourceConfig) {
		if h != nil {
			c.faultHandler = h
		}
	}
}

// WithLogger sets the supervisory logger for the source.
func WithLogger(l *slog.Logger) SourceOption {
	return func(c *sourceConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock sets the timestamp source for emitted events.
func WithClock(now func() time.Time) SourceOption {
	return func(c *sourceConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSlowListenerThreshold logs a warning for every listener callback
// that runs for at least d. Delivery is synchronous, so a slow listener
// delays the emitting code.
func WithSlowListenerThreshold(d time.Duration) SourceOption {
	return func(c *sourceConfig) {
		c.slow = d
	}
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the supervisory logger used for registry faults
// and inherited by sources created through Registry.NewSource.
func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}
