package signal

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dshills/sigslot/internal/logging"
	"github.com/dshills/sigslot/internal/signal/dispatch"
)

// Threaded moves emission of the wrapped signal onto a dedicated worker
// goroutine.
//
// Emit appends to an unbounded FIFO queue and returns without waiting for
// any slot. The single worker dispatches queued values strictly in queue
// order, which is the global submission order across all producers. A slot
// that panics is reported through the panic handler and the worker moves on
// to the next value.
//
// Close stops accepting emissions, waits for the queue to drain and for the
// worker to exit. No accepted emission is ever discarded. Close must not be
// called from a slot of the same Threaded signal.
type Threaded[T any, S Dispatcher[T]] struct {
	sig    S
	exec   *dispatch.Executor
	logger *logging.Logger

	mu     sync.Mutex
	queue  []T
	closed bool
	wake   chan struct{}
	done   chan struct{}

	emitted   atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
	panics    atomic.Uint64
}

// NewThreaded wraps sig and starts its worker.
func NewThreaded[T any, S Dispatcher[T]](sig S, opts ...Option) *Threaded[T, S] {
	cfg := newConfig(opts)

	t := &Threaded[T, S]{
		sig:    sig,
		exec:   cfg.executor,
		logger: cfg.logger.WithField("signal", sig.Name()),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go t.run()
	return t
}

// Signal returns the wrapped signal, for connecting slots.
func (t *Threaded[T, S]) Signal() S {
	return t.sig
}

// Name returns the wrapped signal's name.
func (t *Threaded[T, S]) Name() string {
	return t.sig.Name()
}

// Enabled reports whether the wrapped signal delivers.
func (t *Threaded[T, S]) Enabled() bool {
	return t.sig.Enabled()
}

// SetEnabled toggles the wrapped signal's gate. The gate is evaluated by the
// worker when a value is dispatched, not when it is queued.
func (t *Threaded[T, S]) SetEnabled(enabled bool) {
	t.sig.SetEnabled(enabled)
}

// Emit queues v for delivery on the worker. It never blocks on slots.
// Emit after Close is ignored.
func (t *Threaded[T, S]) Emit(v T) {
	_ = t.TryEmit(v)
}

// TryEmit is like Emit but returns ErrClosed if v was rejected.
func (t *Threaded[T, S]) TryEmit(v T) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		t.dropped.Add(1)
		t.logger.Debug("emit after close ignored")
		return ErrClosed
	}
	t.queue = append(t.queue, v)
	t.mu.Unlock()
	t.emitted.Add(1)

	t.signal()
	return nil
}

// QueueDepth returns the number of emissions waiting for the worker.
func (t *Threaded[T, S]) QueueDepth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

// Close stops accepting emissions and blocks until every queued emission
// has been dispatched and the worker has exited.
func (t *Threaded[T, S]) Close() error {
	t.shutdown()
	<-t.done
	return nil
}

// Stop is like Close but gives up waiting when ctx is done. The worker keeps
// draining in the background in that case.
func (t *Threaded[T, S]) Stop(ctx context.Context) error {
	t.shutdown()
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed once the worker has exited.
func (t *Threaded[T, S]) Done() <-chan struct{} {
	return t.done
}

// Stats returns delivery statistics.
func (t *Threaded[T, S]) Stats() Stats {
	return Stats{
		Emitted:   t.emitted.Load(),
		Delivered: t.delivered.Load(),
		Dropped:   t.dropped.Load(),
		Panics:    t.panics.Load(),
		Pending:   t.QueueDepth(),
	}
}

func (t *Threaded[T, S]) shutdown() {
	t.mu.Lock()
	already := t.closed
	t.closed = true
	t.mu.Unlock()

	if !already {
		t.logger.Debug("closing, %d emissions queued", t.QueueDepth())
	}
	t.signal()
}

// signal wakes the worker without blocking.
func (t *Threaded[T, S]) signal() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// run is the worker loop.
func (t *Threaded[T, S]) run() {
	defer close(t.done)

	for {
		v, ok := t.next()
		if !ok {
			return
		}

		result := t.exec.Execute(context.Background(), t.sig.Name(), func() {
			t.sig.Emit(v)
		})
		if result.Panicked {
			t.panics.Add(1)
		} else {
			t.delivered.Add(1)
		}
	}
}

// next pops the oldest queued value, waiting for one if necessary.
// It returns false once the signal is closed and the queue is empty.
func (t *Threaded[T, S]) next() (T, bool) {
	t.mu.Lock()
	for len(t.queue) == 0 {
		if t.closed {
			t.mu.Unlock()
			var zero T
			return zero, false
		}
		t.mu.Unlock()
		<-t.wake
		t.mu.Lock()
	}

	v := t.queue[0]
	var zero T
	t.queue[0] = zero
	t.queue = t.queue[1:]
	if len(t.queue) == 0 {
		t.queue = nil
	}
	t.mu.Unlock()
	return v, true
}
