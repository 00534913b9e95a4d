// Package dispatch isolates slot execution on background goroutines.
//
// Synchronous signals let a panicking slot propagate to the emitter. The
// throttled, threaded and timer variants dispatch on goroutines nobody is
// waiting on, so a panic there would kill the process. They run each
// dispatch through an Executor instead, which recovers, captures the stack
// and hands both to a PanicHandler. The worker then carries on with the
// next queued item or the next tick.
//
// # Usage
//
//	exec := dispatch.NewExecutor(
//	    dispatch.WithPanicHandler(func(signal string, v any, stack []byte) {
//	        log.Printf("slot of %s panicked: %v\n%s", signal, v, stack)
//	    }),
//	)
//	result := exec.Execute(ctx, "clock", func() { sig.Emit(now) })
//	if !result.IsSuccess() {
//	    // already reported through the panic handler
//	}
//
// # Tracing
//
// Every Execute call is wrapped in an OpenTelemetry span named
// "signal.dispatch". The tracer defaults to the global provider, which is a
// no-op until the application installs one.
package dispatch
