package trace

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is one listener's attachment to one source.
//
// Subscriptions are immutable. Re-attaching a listener with a new filter
// replaces its subscription with one that keeps the same ID and position.
type Subscription struct {
	id         string
	source     *Source
	listener   Listener
	filter     Filter
	attachedAt time.Time
	target     listenerTarget
}

func newSubscription(src *Source, l Listener, f Filter, now time.Time) *Subscription {
	return &Subscription{
		id:         uuid.NewString(),
		source:     src,
		listener:   l,
		filter:     f,
		attachedAt: now,
		target:     listenerTarget{l: l},
	}
}

// withFilter returns a copy of s using f.
func (s *Subscription) withFilter(f Filter) *Subscription {
	next := *s
	next.filter = f
	return &next
}

// ID returns the subscription identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Source returns the source the listener is attached to.
func (s *Subscription) Source() *Source {
	return s.source
}

// Listener returns the attached listener.
func (s *Subscription) Listener() Listener {
	return s.listener
}

// Filter returns the listener's filter for this source.
func (s *Subscription) Filter() Filter {
	return s.filter
}

// AttachedAt returns when the listener was first attached.
func (s *Subscription) AttachedAt() time.Time {
	return s.attachedAt
}

// Cancel detaches the listener from the source. It reports whether the
// listener was still attached.
func (s *Subscription) Cancel() bool {
	return s.source.Detach(s.listener)
}

// listenerTarget adapts a Listener to dispatch.Target.
type listenerTarget struct {
	l Listener
}

func (t listenerTarget) OnEvent(event any) error {
	return t.l.OnEvent(event.(*Event))
}
