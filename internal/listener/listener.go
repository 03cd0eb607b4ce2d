// Package listener holds the pieces shared by semtrace's listener
// implementations: per-source filter routing and registry bindings.
package listener

import (
	"maps"
	"sync"

	"github.com/dshills/semtrace/internal/trace"
)

// Routes maps source names to filters. Sources without an entry use
// Default.
type Routes struct {
	Default trace.Filter
	Sources map[string]trace.Filter
}

// AllRoutes attaches to every source with trace.FilterAll.
var AllRoutes = Routes{Default: trace.FilterAll}

// For returns the filter for the named source.
func (r Routes) For(name string) trace.Filter {
	if f, ok := r.Sources[name]; ok {
		return f
	}
	return r.Default
}

// Clone returns a copy of r that shares no maps with it.
func (r Routes) Clone() Routes {
	return Routes{Default: r.Default, Sources: maps.Clone(r.Sources)}
}

// Attach attaches l to src with the routed filter.
func (r Routes) Attach(src *trace.Source, l trace.Listener) (*trace.Subscription, error) {
	return src.Attach(l, r.For(src.Name()))
}

// Router picks a listener's filter for a source. Returning false leaves
// the listener detached from that source.
type Router interface {
	Route(src *trace.Source) (trace.Filter, bool)
}

// Route implements Router. Every source is routed.
func (r Routes) Route(src *trace.Source) (trace.Filter, bool) {
	return r.For(src.Name()), true
}

// SourceSelector is implemented by listeners that want to decline some
// sources.
type SourceSelector interface {
	SelectSource(src *trace.Source) bool
}

// Binding keeps a listener attached to every source of a registry,
// including sources registered later, using a Router that can be replaced
// at runtime.
type Binding struct {
	reg *trace.Registry
	l   trace.Listener

	mu     sync.Mutex
	router Router
	cancel func()
	closed bool
}

// Bind attaches l to every current and future source of reg.
func Bind(reg *trace.Registry, l trace.Listener, router Router) *Binding {
	b := &Binding{reg: reg, l: l, router: router}
	b.cancel = reg.Observe(b)
	return b
}

// Listener returns the bound listener.
func (b *Binding) Listener() trace.Listener {
	return b.l
}

// Router returns the current router.
func (b *Binding) Router() Router {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.router
}

// OnSourceCreated implements trace.SourceObserver.
func (b *Binding) OnSourceCreated(src *trace.Source) {
	b.mu.Lock()
	router, closed := b.router, b.closed
	b.mu.Unlock()

	if closed {
		return
	}
	b.apply(router, src)
}

// apply attaches or detaches the listener on src according to router.
func (b *Binding) apply(router Router, src *trace.Source) {
	f, ok := router.Route(src)
	if !ok || !b.selects(src) {
		src.Detach(b.l)
		return
	}
	_, _ = src.Attach(b.l, f)
}

// selects asks the listener whether it wants src. A panicking selector
// leaves the listener detached from src.
func (b *Binding) selects(src *trace.Source) bool {
	sel, ok := b.l.(SourceSelector)
	if !ok {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			src.Detach(b.l)
			panic(r)
		}
	}()
	return sel.SelectSource(src)
}

// SetRouter replaces the router and re-applies it to every registered
// source. Re-attaching keeps the listener's position in delivery order.
func (b *Binding) SetRouter(router Router) {
	b.mu.Lock()
	b.router = router
	closed := b.closed
	b.mu.Unlock()

	if closed {
		return
	}
	for src := range b.reg.Sources() {
		b.apply(router, src)
	}
}

// Close stops following new sources and detaches the listener everywhere.
// It returns how many sources the listener was detached from.
func (b *Binding) Close() int {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return 0
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	return b.reg.DetachAll(b.l)
}
