// Package dispatch executes listener callbacks for the trace core.
//
// Delivery is always synchronous: the callback runs on the goroutine that
// emitted the event and Dispatch does not return until it has finished.
//
// # Fault Isolation
//
// The Executor recovers panics raised by a callback and captures returned
// errors, so a misbehaving listener never unwinds into the emitting
// producer. Faults are reported through the returned Result and, for
// panics, through an optional PanicHandler.
//
// # Usage
//
//	d := dispatch.NewSyncDispatcher(
//	    dispatch.WithPanicHandler(func(event any, v any, stack []byte) {
//	        logger.Error("listener panic", "value", v)
//	    }),
//	)
//	res := d.Dispatch(evt, target)
//	if !res.IsSuccess() {
//	    // report res.Error or res.PanicValue
//	}
package dispatch
