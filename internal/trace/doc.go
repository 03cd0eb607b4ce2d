// Package trace provides structured, leveled, keyword-filterable diagnostic
// events for semtrace.
//
// Producers own a Source: a named, immutable table of event definitions
// (Schemas). Listeners attach to sources with a Filter and receive every
// event that passes it. Everything happens in-process and synchronously.
//
// # Architecture
//
//	┌──────────────┐   Emit(id, values...)   ┌──────────────────────────┐
//	│   Producer   │ ───────────────────────▶│          Source          │
//	└──────────────┘                         │  - schema table          │
//	                                         │  - snapshot of listeners │
//	                                         │  - dispatch (in order)   │
//	                                         └──────────────────────────┘
//	                                                      │
//	                                 ┌────────────────────┼───────────────────┐
//	                                 ▼                    ▼                   ▼
//	                          ┌────────────┐       ┌────────────┐      ┌────────────┐
//	                          │ Listener A │       │ Listener B │      │ Listener C │
//	                          └────────────┘       └────────────┘      └────────────┘
//
// A Registry holds every Source of the process and notifies observers when
// a source is registered; listeners that want "everything, including
// sources created later" implement SourceObserver and call Registry.Observe.
//
// # Defining Events
//
//	src, err := reg.NewSource("FirefoxSync-EventLog", []trace.Schema{
//	    {
//	        ID:       1,
//	        Name:     "RequestStart",
//	        Level:    trace.LevelInformational,
//	        Keywords: 0x1,
//	        Message:  "Start processing request {0} for URL {1}",
//	        Params:   []trace.Param{trace.Int("RequestID"), trace.String("Url")},
//	    },
//	})
//
// Definitions are validated eagerly: duplicate ids or names, empty names,
// and templates that refer to undeclared values fail with a
// DefinitionError before any event can be emitted.
//
// # Emitting
//
// Typed wrappers guard payload construction with IsEnabled so that a
// source with no interested listener costs one atomic load:
//
//	func (s *Log) RequestStart(id int, url string) {
//	    if s.src.IsEnabledFor(eventRequestStart) {
//	        s.src.MustEmit(eventRequestStart, id, url)
//	    }
//	}
//
// # Filtering
//
// A Filter accepts an event when the event's level is at least as severe as
// Filter.Level and, unless Filter.Keywords is KeywordsAll, the event shares
// at least one keyword bit with the filter. The source keeps the union of
// its listeners' filters for a fast reject; each listener's own filter is
// then checked again during dispatch.
//
// # Faults
//
// Listener errors and panics are recovered per listener, counted, and
// handed to the source's FaultHandler (by default logged through slog).
// They never stop delivery to later listeners and never reach the producer.
//
// # Thread Safety
//
// Emit and IsEnabled may be called from any number of goroutines without
// external locking. Attach and Detach publish a new snapshot atomically.
// Listeners are responsible for serializing access to their own sinks.
package trace
