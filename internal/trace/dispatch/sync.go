package dispatch

import (
	"sync/atomic"
	"time"
)

// SyncDispatcher runs each target on the emitting goroutine. A slow
// target therefore stalls the producer, so the dispatcher records the
// longest callback and, with a threshold set, how many exceeded it.
type SyncDispatcher struct {
	executor *Executor
	slow     time.Duration

	dispatched atomic.Uint64
	failed     atomic.Uint64
	panicked   atomic.Uint64
	slowCount  atomic.Uint64
	totalNs    atomic.Int64
	maxNs      atomic.Int64
}

// SyncOption configures a SyncDispatcher.
type SyncOption func(*SyncDispatcher)

// WithPanicHandler is called for every recovered target panic.
func WithPanicHandler(h PanicHandler) SyncOption {
	return func(d *SyncDispatcher) {
		d.executor = NewExecutor(WithExecutorPanicHandler(h))
	}
}

// WithSlowThreshold marks callbacks that run for at least t as slow.
// Zero disables the check.
func WithSlowThreshold(t time.Duration) SyncOption {
	return func(d *SyncDispatcher) {
		if t > 0 {
			d.slow = t
		}
	}
}

// NewSyncDispatcher creates a synchronous dispatcher.
func NewSyncDispatcher(opts ...SyncOption) *SyncDispatcher {
	d := &SyncDispatcher{executor: NewExecutor()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs target with event and returns once it has finished.
func (d *SyncDispatcher) Dispatch(event any, target Target) Result {
	res := d.executor.Execute(event, target)

	d.dispatched.Add(1)
	ns := res.Duration.Nanoseconds()
	d.totalNs.Add(ns)
	for {
		cur := d.maxNs.Load()
		if ns <= cur || d.maxNs.CompareAndSwap(cur, ns) {
			break
		}
	}
	if d.slow > 0 && res.Duration >= d.slow {
		res.Slow = true
		d.slowCount.Add(1)
	}

	if res.Panicked {
		d.panicked.Add(1)
	} else if res.Error != nil {
		d.failed.Add(1)
	}
	return res
}

// Stats returns a snapshot of the counters. Fields are read one at a
// time and may disagree while dispatches are in flight.
func (d *SyncDispatcher) Stats() SyncDispatcherStats {
	s := SyncDispatcherStats{
		Dispatched:  d.dispatched.Load(),
		Failed:      d.failed.Load(),
		Panicked:    d.panicked.Load(),
		Slow:        d.slowCount.Load(),
		Total:       time.Duration(d.totalNs.Load()),
		MaxDuration: time.Duration(d.maxNs.Load()),
	}
	if s.Dispatched > 0 {
		s.AvgDuration = s.Total / time.Duration(s.Dispatched)
	}
	if bad := s.Failed + s.Panicked; bad <= s.Dispatched {
		s.Succeeded = s.Dispatched - bad
	}
	return s
}

// SyncDispatcherStats summarizes listener callbacks.
type SyncDispatcherStats struct {
	Dispatched uint64
	Succeeded  uint64
	Failed     uint64
	Panicked   uint64

	// Slow counts callbacks at or over the slow threshold.
	Slow uint64

	Total       time.Duration
	AvgDuration time.Duration
	MaxDuration time.Duration
}
