package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/semtrace/internal/trace"
)

// checkKeywords validates hex masks; names can only be checked against a
// source.
func checkKeywords(list []string) error {
	for _, k := range list {
		k = strings.TrimSpace(k)
		if k == "" {
			return fmt.Errorf("empty keyword")
		}
		if isHex(k) {
			if _, err := parseHex(k); err != nil {
				return err
			}
		}
	}
	return nil
}

func isHex(s string) bool {
	return strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")
}

func parseHex(s string) (trace.Keywords, error) {
	v, err := strconv.ParseUint(s[2:], 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid keyword mask %q", s)
	}
	return trace.Keywords(v), nil
}

// ResolveKeywords turns a keyword list into a mask for src. Names the
// source does not declare are skipped. The second result is false when
// the list is non-empty but selects none of the source's keywords.
func ResolveKeywords(list []string, src *trace.Source) (trace.Keywords, bool) {
	if len(list) == 0 {
		return trace.KeywordsAll, true
	}

	var mask trace.Keywords
	for _, k := range list {
		k = strings.TrimSpace(k)
		if isHex(k) {
			v, err := parseHex(k)
			if err == nil {
				mask |= v
			}
			continue
		}
		if v, ok := src.Keyword(strings.ToLower(k)); ok {
			mask |= v
		}
	}
	return mask, mask != 0
}

// Router routes a listener's configured filters to sources. It implements
// listener.Router.
type Router struct {
	level     trace.Level
	keywords  []string
	overrides map[string]sourceRoute
}

type sourceRoute struct {
	level    trace.Level
	keywords []string
	disabled bool
}

// Router compiles the listener's filters. Call Validate first; Router
// fails on the first invalid level.
func (l *Listener) Router() (*Router, error) {
	level, err := parseLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("listener %q: %w", l.Name, err)
	}

	r := &Router{
		level:     level,
		keywords:  l.Keywords,
		overrides: make(map[string]sourceRoute, len(l.Sources)),
	}
	for _, s := range l.Sources {
		lvl := level
		if s.Level != "" {
			if lvl, err = parseLevel(s.Level); err != nil {
				return nil, fmt.Errorf("listener %q source %q: %w", l.Name, s.Name, err)
			}
		}
		kw := s.Keywords
		if kw == nil {
			kw = l.Keywords
		}
		r.overrides[s.Name] = sourceRoute{level: lvl, keywords: kw, disabled: s.Disabled}
	}
	return r, nil
}

// Route returns the filter for src.
func (r *Router) Route(src *trace.Source) (trace.Filter, bool) {
	level, keywords := r.level, r.keywords
	if o, ok := r.overrides[src.Name()]; ok {
		if o.disabled {
			return trace.Filter{}, false
		}
		level, keywords = o.level, o.keywords
	}

	mask, ok := ResolveKeywords(keywords, src)
	if !ok {
		return trace.Filter{}, false
	}
	return trace.Filter{Level: level, Keywords: mask}, true
}
