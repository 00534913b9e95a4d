package signal

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/sigslot/internal/logging"
	"github.com/dshills/sigslot/internal/signal/dispatch"
)

// Option configures a Throttled, Threaded or Timer signal.
type Option func(*config)

// config contains the settings shared by decorators that dispatch on
// background goroutines.
type config struct {
	panicHandler dispatch.PanicHandler
	tracer       trace.Tracer
	observers    []dispatch.Observer
	executor     *dispatch.Executor
	logger       *logging.Logger
}

func newConfig(opts []Option) config {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = logging.Default().WithComponent("signal")
	}
	if c.executor == nil {
		handler := c.panicHandler
		if handler == nil {
			handler = dispatch.LogPanicHandler(c.logger)
		}
		execOpts := []dispatch.Option{dispatch.WithPanicHandler(handler)}
		if c.tracer != nil {
			execOpts = append(execOpts, dispatch.WithTracer(c.tracer))
		}
		for _, o := range c.observers {
			execOpts = append(execOpts, dispatch.WithObserver(o))
		}
		c.executor = dispatch.NewExecutor(execOpts...)
	}
	return c
}

// WithPanicHandler sets the handler that receives panics raised by slots on
// background dispatches. By default panics are logged.
func WithPanicHandler(h dispatch.PanicHandler) Option {
	return func(c *config) {
		c.panicHandler = h
	}
}

// WithTracer sets the tracer used for background dispatch spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *config) {
		c.tracer = t
	}
}

// WithObserver adds an observer of background dispatch results, such as a
// metrics recorder.
func WithObserver(o dispatch.Observer) Option {
	return func(c *config) {
		c.observers = append(c.observers, o)
	}
}

// WithExecutor shares an existing executor. It takes precedence over
// WithPanicHandler, WithTracer and WithObserver.
func WithExecutor(e *dispatch.Executor) Option {
	return func(c *config) {
		c.executor = e
	}
}

// WithLogger sets the logger for lifecycle diagnostics.
func WithLogger(l *logging.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}
