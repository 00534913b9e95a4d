// Package signal provides in-process signal/slot dispatch.
//
// A signal holds an ordered list of slots for one payload type and calls
// them when it is emitted. Payloads with several values are passed as a
// struct; signals without a payload use struct{}.
//
// # Signal Kinds
//
//	Signal[T]            - synchronous, slots run on the emitting goroutine
//	ExtendedSignal[T]    - synchronous, slots also receive the signal itself
//	Throttled[T, S]      - at most one delivery per window, the rest queued
//	Threaded[T, S]       - delivery on a dedicated worker, FIFO
//	Timer[T]             - periodic emission from a background goroutine
//	Set[T, S]            - string keys to lazily created signals of kind S
//
// Throttled, Threaded and Set are generic over Dispatcher, so they wrap any
// signal kind, including each other:
//
//	type threadedEx = signal.Threaded[string, *signal.ExtendedSignal[string]]
//
//	set := signal.NewSet[string](func(name string) *threadedEx {
//	    return signal.NewThreaded[string](signal.NewExtended[string](name))
//	})
//	defer set.Close()
//
// Set keys are split into segments on '/' and '.'. Match and EmitMatching
// select existing members by pattern, where "*" stands for one segment and
// "**" for any number of them:
//
//	set.EmitMatching("/mainwindow/**", "redraw")
//
// # Basic Usage
//
//	sig := signal.New[string]("status")
//	conn := sig.ConnectFunc(func(s string) {
//	    fmt.Println("status:", s)
//	})
//	defer conn.Disconnect()
//
//	sig.Emit("ready")
//
// # Connections
//
// Connect returns a Connection, the only handle to the subscription. It can
// pause the slot, disconnect it, and reach the signal's name and global
// gate. A Connection refers to its signal weakly: once the signal is gone,
// Disconnect is a no-op and Signal returns nil.
//
// # Ordering
//
// Slots run in connection order. Emit iterates a snapshot of the slot list,
// so slots may connect or disconnect (themselves or others) while an
// emission is running. A slot disconnected before the emission reaches it
// is skipped.
//
// # Errors and Panics
//
// Synchronous emission does not recover panics: the first panicking slot
// aborts the rest of that emission and the panic reaches the emitter.
// Throttled drains, Threaded workers and Timer ticks run on goroutines
// nobody waits on; there a panic is recovered, reported through the
// configured PanicHandler (logged by default) and the goroutine goes on.
//
// Invalid configuration (non-positive window or interval, empty set key)
// fails the constructing call with a sentinel error.
//
// # Shutdown
//
// Threaded.Close blocks until the queue is drained. Throttled.Close only
// stops accepting emissions; the queue keeps draining in the background and
// Wait blocks until it is empty. Timer.Stop waits for an in-flight tick.
// Set.Close closes every member that implements io.Closer.
//
// # Thread Safety
//
// All types are safe for concurrent use. Individual slots must manage their
// own thread safety.
package signal
