package dispatch

import (
	"time"

	"github.com/dshills/sigslot/internal/logging"
)

// Result represents the outcome of one dispatch of a signal to its slots.
type Result struct {
	// Signal is the name of the dispatched signal.
	Signal string

	// Panicked is true if a slot panicked.
	Panicked bool

	// PanicValue is the value passed to panic(), if Panicked is true.
	PanicValue any

	// PanicStack is the stack trace at the point of panic.
	PanicStack []byte

	// Duration is how long the dispatch took.
	Duration time.Duration
}

// IsSuccess returns true if every slot ran to completion.
func (r Result) IsSuccess() bool {
	return !r.Panicked
}

// IsPanic returns true if the result indicates a panic.
func (r Result) IsPanic() bool {
	return r.Panicked
}

// PanicHandler is called when a slot panics on a background dispatch.
// It receives the signal name, the panic value, and the stack trace.
type PanicHandler func(signal string, panicValue any, stack []byte)

// Observer receives the result of every dispatch, after any panic has been
// handled. Observers run on the dispatching goroutine and must be fast.
type Observer func(Result)

// LogPanicHandler returns a PanicHandler that reports panics to logger.
func LogPanicHandler(logger *logging.Logger) PanicHandler {
	return func(signal string, panicValue any, stack []byte) {
		logger.WithField("signal", signal).Error("slot panic: %v\n%s", panicValue, stack)
	}
}

// defaultPanicHandler reports to the process-wide logger.
func defaultPanicHandler(signal string, panicValue any, stack []byte) {
	LogPanicHandler(logging.Default().WithComponent("dispatch"))(signal, panicValue, stack)
}
