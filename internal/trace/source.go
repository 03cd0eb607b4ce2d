package trace

import (
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/dshills/semtrace/internal/trace/dispatch"
)

// Source is a named collection of event definitions with its own set of
// attached listeners.
//
// IsEnabled and Emit are safe for concurrent use and take no locks. Attach
// and Detach publish a new immutable snapshot of the listener set, so a
// concurrent IsEnabled observes either the old or the new set, never a mix.
type Source struct {
	name    string
	schemas []*Schema
	byID    map[uint16]*Schema
	byName  map[string]*Schema
	config  sourceConfig

	// mu serializes Attach and Detach.
	mu    sync.Mutex
	state atomic.Pointer[sourceState]

	dispatcher *dispatch.SyncDispatcher

	registered atomic.Bool

	emitted   atomic.Uint64
	delivered atomic.Uint64
	filtered  atomic.Uint64
	faults    atomic.Uint64
}

// sourceState is an immutable snapshot of a source's subscriptions plus
// the union of their filters, used to reject events cheaply.
type sourceState struct {
	subs []*Subscription

	// maxLevel is the least severe level any subscription accepts.
	maxLevel Level

	// keywords is the OR of all subscription masks; allKeywords is set if
	// any subscription does not filter by keyword.
	keywords    Keywords
	allKeywords bool
}

var disabledState = &sourceState{}

func newSourceState(subs []*Subscription) *sourceState {
	if len(subs) == 0 {
		return disabledState
	}
	st := &sourceState{subs: subs}
	for _, sub := range subs {
		f := sub.filter
		if f.Level > st.maxLevel {
			st.maxLevel = f.Level
		}
		if f.Keywords == KeywordsAll {
			st.allKeywords = true
		}
		st.keywords |= f.Keywords
	}
	return st
}

func (st *sourceState) enabled(level Level, keywords Keywords) bool {
	if len(st.subs) == 0 || level > st.maxLevel {
		return false
	}
	if !st.allKeywords && keywords&st.keywords == 0 {
		return false
	}
	for _, sub := range st.subs {
		if sub.filter.Accepts(level, keywords) {
			return true
		}
	}
	return false
}

// NewSource validates schemas and returns a source that is not yet
// registered. Schemas keep their declaration order. A source with no
// schemas is valid and never emits.
func NewSource(name string, schemas []Schema, opts ...SourceOption) (*Source, error) {
	if name == "" {
		return nil, &DefinitionError{Err: ErrInvalidSourceName}
	}

	cfg := defaultSourceConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Source{
		name:    name,
		schemas: make([]*Schema, 0, len(schemas)),
		byID:    make(map[uint16]*Schema, len(schemas)),
		byName:  make(map[string]*Schema, len(schemas)),
		config:  cfg,
	}

	for _, decl := range schemas {
		sc, err := decl.compile(name)
		if err != nil {
			return nil, err
		}
		if _, dup := s.byID[sc.ID]; dup {
			return nil, &DefinitionError{Source: name, ID: sc.ID, Name: sc.Name, Err: ErrDuplicateID}
		}
		if _, dup := s.byName[sc.Name]; dup {
			return nil, &DefinitionError{Source: name, ID: sc.ID, Name: sc.Name, Err: ErrDuplicateName}
		}
		s.schemas = append(s.schemas, sc)
		s.byID[sc.ID] = sc
		s.byName[sc.Name] = sc
	}

	s.dispatcher = dispatch.NewSyncDispatcher(
		dispatch.WithSlowThreshold(cfg.slow),
		dispatch.WithPanicHandler(s.logPanic),
	)
	s.state.Store(disabledState)

	return s, nil
}

// Name returns the source name.
func (s *Source) Name() string {
	return s.name
}

// Schemas returns the source's schemas in declaration order.
func (s *Source) Schemas() []*Schema {
	out := make([]*Schema, len(s.schemas))
	copy(out, s.schemas)
	return out
}

// Schema returns the schema with the given id.
func (s *Source) Schema(id uint16) (*Schema, bool) {
	sc, ok := s.byID[id]
	return sc, ok
}

// SchemaByName returns the schema with the given name.
func (s *Source) SchemaByName(name string) (*Schema, bool) {
	sc, ok := s.byName[name]
	return sc, ok
}

// KeywordNames returns a copy of the source's named keyword bits.
func (s *Source) KeywordNames() map[string]Keywords {
	return maps.Clone(s.config.keywordNames)
}

// Keyword resolves a keyword name declared with WithKeywordNames.
func (s *Source) Keyword(name string) (Keywords, bool) {
	k, ok := s.config.keywordNames[name]
	return k, ok
}

// Enabled reports whether any listener is attached.
func (s *Source) Enabled() bool {
	return len(s.state.Load().subs) > 0
}

// IsEnabled reports whether at least one attached listener accepts an
// event with the given level and keywords. It does not allocate.
func (s *Source) IsEnabled(level Level, keywords Keywords) bool {
	return s.state.Load().enabled(level, keywords)
}

// IsEnabledFor is IsEnabled for a declared event id.
func (s *Source) IsEnabledFor(id uint16) bool {
	sc, ok := s.byID[id]
	if !ok {
		return false
	}
	return s.state.Load().enabled(sc.Level, sc.Keywords)
}

// Emit validates values against the schema for id and, if any listener
// is interested, delivers the event synchronously to every accepting
// listener in attachment order.
//
// A PayloadError is returned for unknown ids and for values that do not
// match the declared parameters. Listener failures are never returned.
func (s *Source) Emit(id uint16, values ...any) error {
	sc, ok := s.byID[id]
	if !ok {
		return &PayloadError{Source: s.name, ID: id, Index: -1, Err: ErrUnknownEvent}
	}
	if err := sc.check(s.name, values); err != nil {
		return err
	}

	st := s.state.Load()
	if !st.enabled(sc.Level, sc.Keywords) {
		return nil
	}

	s.emitted.Add(1)
	s.dispatch(st, &Event{
		Source:    s,
		Schema:    sc,
		Payload:   values,
		Timestamp: s.config.now(),
	})
	return nil
}

// MustEmit is like Emit but panics on a PayloadError. Typed emission
// wrappers use it, since a mismatch there is a coding defect.
func (s *Source) MustEmit(id uint16, values ...any) {
	if err := s.Emit(id, values...); err != nil {
		panic(err)
	}
}

// dispatch fans evt out over the snapshot taken by Emit. Each subscription
// re-checks its own filter; the snapshot check was only a union.
func (s *Source) dispatch(st *sourceState, evt *Event) {
	level, keywords := evt.Schema.Level, evt.Schema.Keywords

	for _, sub := range st.subs {
		if !sub.filter.Accepts(level, keywords) {
			s.filtered.Add(1)
			continue
		}

		res := s.dispatcher.Dispatch(evt, sub.target)
		if res.Slow {
			s.logger().Warn("slow listener",
				slog.String("source", s.name),
				slog.String("event", evt.Schema.Name),
				slog.String("subscription", sub.id),
				slog.Duration("duration", res.Duration),
			)
		}
		if res.IsSuccess() {
			s.delivered.Add(1)
			continue
		}

		s.faults.Add(1)
		s.reportFault(&ListenerFault{
			Source:         s.name,
			Event:          evt.Schema.Name,
			SubscriptionID: sub.id,
			Err:            res.Error,
			Panicked:       res.Panicked,
			PanicValue:     res.PanicValue,
			Stack:          res.PanicStack,
		})
	}
}

// logPanic records the stack of a panicking listener at debug level. The
// fault itself is reported separately through reportFault.
func (s *Source) logPanic(event any, value any, stack []byte) {
	name := ""
	if e, ok := event.(*Event); ok {
		name = e.Schema.Name
	}
	s.logger().Debug("listener panic",
		slog.String("source", s.name),
		slog.String("event", name),
		slog.Any("value", value),
		slog.String("stack", string(stack)),
	)
}

func (s *Source) reportFault(f *ListenerFault) {
	defer func() {
		// A failing fault handler never reaches the producer.
		if v := recover(); v != nil {
			s.logger().Error("fault handler panicked",
				slog.String("source", f.Source),
				slog.String("event", f.Event),
				slog.Any("value", v),
				slog.String("fault", f.Error()),
			)
		}
	}()

	if s.config.faultHandler != nil {
		s.config.faultHandler(f)
		return
	}
	s.logger().Error("listener fault",
		slog.String("source", f.Source),
		slog.String("event", f.Event),
		slog.String("subscription", f.SubscriptionID),
		slog.Bool("panicked", f.Panicked),
		slog.String("error", f.Error()),
	)
}

func (s *Source) logger() *slog.Logger {
	if s.config.logger != nil {
		return s.config.logger
	}
	return slog.Default()
}

// isComparable reports whether l can be matched with ==.
func isComparable(l Listener) bool {
	return reflect.TypeOf(l).Comparable()
}

// Attach subscribes l with filter f. If l is already attached its filter
// is replaced and it keeps its position in delivery order. Listeners of a
// non-comparable type are rejected with ErrUncomparable.
func (s *Source) Attach(l Listener, f Filter) (*Subscription, error) {
	if l == nil {
		return nil, ErrNilListener
	}
	if !isComparable(l) {
		return nil, fmt.Errorf("%w: %T", ErrUncomparable, l)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.state.Load().subs
	subs := make([]*Subscription, 0, len(old)+1)

	var sub *Subscription
	for _, existing := range old {
		if existing.listener == l {
			sub = existing.withFilter(f)
			subs = append(subs, sub)
			continue
		}
		subs = append(subs, existing)
	}
	if sub == nil {
		sub = newSubscription(s, l, f, s.config.now())
		subs = append(subs, sub)
	}

	s.state.Store(newSourceState(subs))
	return sub, nil
}

// Detach unsubscribes l. It reports whether l was attached; detaching an
// unknown listener is a no-op.
func (s *Source) Detach(l Listener) bool {
	if l == nil || !isComparable(l) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.state.Load().subs
	for i, existing := range old {
		if existing.listener != l {
			continue
		}
		subs := make([]*Subscription, 0, len(old)-1)
		subs = append(subs, old[:i]...)
		subs = append(subs, old[i+1:]...)
		s.state.Store(newSourceState(subs))
		return true
	}
	return false
}

// DetachAll removes every listener and returns how many were attached.
func (s *Source) DetachAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.state.Load().subs)
	s.state.Store(disabledState)
	return n
}

// Subscription returns l's current subscription, if attached.
func (s *Source) Subscription(l Listener) (*Subscription, bool) {
	if l == nil || !isComparable(l) {
		return nil, false
	}
	for _, sub := range s.state.Load().subs {
		if sub.listener == l {
			return sub, true
		}
	}
	return nil, false
}

// Subscriptions returns the current subscriptions in delivery order.
func (s *Source) Subscriptions() []*Subscription {
	subs := s.state.Load().subs
	out := make([]*Subscription, len(subs))
	copy(out, subs)
	return out
}

// SourceStats contains emission statistics for a source.
type SourceStats struct {
	// Emitted counts events that at least one listener was interested in.
	Emitted uint64

	// Delivered counts successful listener callbacks.
	Delivered uint64

	// Filtered counts per-listener filter rejections after the source-level
	// check passed.
	Filtered uint64

	// Faults counts listener callbacks that failed or panicked.
	Faults uint64

	Listeners int
}

// Stats returns a snapshot of the source's counters.
func (s *Source) Stats() SourceStats {
	return SourceStats{
		Emitted:   s.emitted.Load(),
		Delivered: s.delivered.Load(),
		Filtered:  s.filtered.Load(),
		Faults:    s.faults.Load(),
		Listeners: len(s.state.Load().subs),
	}
}

// DispatchStats returns execution statistics for listener callbacks.
func (s *Source) DispatchStats() dispatch.SyncDispatcherStats {
	return s.dispatcher.Stats()
}

// String implements fmt.Stringer.
func (s *Source) String() string {
	return fmt.Sprintf("Source(%s, %d events)", s.name, len(s.schemas))
}
