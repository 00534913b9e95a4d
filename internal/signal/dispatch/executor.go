package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "github.com/dshills/sigslot/internal/signal/dispatch"

// Executor runs a dispatch on a background goroutine with panic recovery,
// timing and optional tracing. A panicking slot never escapes Execute.
type Executor struct {
	panicHandler PanicHandler
	tracer       trace.Tracer
	observers    []Observer

	executed atomic.Uint64
	panicked atomic.Uint64
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		panicHandler: defaultPanicHandler,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(defaultTracerName)
	}
	return e
}

// Option configures an Executor.
type Option func(*Executor)

// WithPanicHandler sets the panic handler for the executor.
// A nil handler keeps the default, which logs the panic.
func WithPanicHandler(h PanicHandler) Option {
	return func(e *Executor) {
		if h != nil {
			e.panicHandler = h
		}
	}
}

// WithObserver adds an observer called with the result of every dispatch.
func WithObserver(o Observer) Option {
	return func(e *Executor) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithTracer sets the tracer used to wrap each dispatch in a span.
func WithTracer(t trace.Tracer) Option {
	return func(e *Executor) {
		e.tracer = t
	}
}

// Execute runs fn as the dispatch of the named signal and returns the result.
func (e *Executor) Execute(ctx context.Context, signal string, fn func()) (result Result) {
	result.Signal = signal
	e.executed.Add(1)

	_, span := e.tracer.Start(ctx, "signal.dispatch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("signal.name", signal)),
	)

	start := time.Now()

	defer func() {
		result.Duration = time.Since(start)

		if r := recover(); r != nil {
			stack := debug.Stack()

			result.Panicked = true
			result.PanicValue = r
			result.PanicStack = stack
			e.panicked.Add(1)

			span.SetStatus(codes.Error, fmt.Sprint(r))

			// A panicking panic handler must not take the worker down.
			if e.panicHandler != nil {
				func() {
					defer func() {
						_ = recover()
					}()
					e.panicHandler(signal, r, stack)
				}()
			}
		}
		span.End()

		for _, o := range e.observers {
			o(result)
		}
	}()

	fn()
	return result
}

// Executed returns the number of dispatches run.
func (e *Executor) Executed() uint64 {
	return e.executed.Load()
}

// Panicked returns the number of dispatches that panicked.
func (e *Executor) Panicked() uint64 {
	return e.panicked.Load()
}
