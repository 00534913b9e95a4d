package signal

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/sigslot/internal/logging"
	"github.com/dshills/sigslot/internal/signal/dispatch"
)

// throttleMode is the state of a throttled signal.
type throttleMode int

const (
	throttleIdle throttleMode = iota
	throttleCooling
)

// String returns a human-readable mode name.
func (m throttleMode) String() string {
	switch m {
	case throttleIdle:
		return "idle"
	case throttleCooling:
		return "cooling"
	default:
		return "unknown"
	}
}

// Throttled delivers at most one emission per window to the wrapped signal.
//
// An Emit while idle is dispatched at once on the caller's goroutine and
// starts a cooling window. Emits during the window are queued, never
// dropped. When a window expires the oldest queued value is dispatched on a
// timer goroutine and a new window starts; an empty queue returns the
// signal to idle.
//
// The queue is owned by an internal state block that the drain timer keeps
// alive, so queued values are still delivered after Close or after the
// Throttled value itself becomes unreachable. Call Wait to block until the
// queue is empty.
type Throttled[T any, S Dispatcher[T]] struct {
	st *throttleState[T, S]
}

type throttleState[T any, S Dispatcher[T]] struct {
	sig    S
	window time.Duration
	exec   *dispatch.Executor
	logger *logging.Logger

	mu          sync.Mutex
	mode        throttleMode
	pending     []T
	nextAllowed time.Time
	closed      bool
	idle        chan struct{} // closed on the next transition to idle

	emitted   atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
	panics    atomic.Uint64
}

// NewThrottled wraps sig so that at most one emission per window reaches it.
// Returns ErrInvalidWindow if window is not positive.
func NewThrottled[T any, S Dispatcher[T]](sig S, window time.Duration, opts ...Option) (*Throttled[T, S], error) {
	if window <= 0 {
		return nil, fmt.Errorf("throttling %q: %w", sig.Name(), ErrInvalidWindow)
	}

	cfg := newConfig(opts)
	return &Throttled[T, S]{
		st: &throttleState[T, S]{
			sig:    sig,
			window: window,
			exec:   cfg.executor,
			logger: cfg.logger.WithField("signal", sig.Name()),
		},
	}, nil
}

// Signal returns the wrapped signal, for connecting slots.
func (t *Throttled[T, S]) Signal() S {
	return t.st.sig
}

// Name returns the wrapped signal's name.
func (t *Throttled[T, S]) Name() string {
	return t.st.sig.Name()
}

// Enabled reports whether the wrapped signal delivers.
func (t *Throttled[T, S]) Enabled() bool {
	return t.st.sig.Enabled()
}

// SetEnabled toggles the wrapped signal's gate.
func (t *Throttled[T, S]) SetEnabled(enabled bool) {
	t.st.sig.SetEnabled(enabled)
}

// Window returns the coalescing window.
func (t *Throttled[T, S]) Window() time.Duration {
	return t.st.window
}

// Emit dispatches v now if the signal is idle, or queues it for a later
// window otherwise. A panic raised by a slot during an immediate dispatch
// propagates to the caller; queued values are still drained.
func (t *Throttled[T, S]) Emit(v T) {
	_ = t.TryEmit(v)
}

// TryEmit is like Emit but returns ErrClosed if v was rejected.
func (t *Throttled[T, S]) TryEmit(v T) error {
	st := t.st

	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		st.dropped.Add(1)
		st.logger.Debug("emit after close ignored")
		return ErrClosed
	}
	st.emitted.Add(1)
	if st.mode == throttleCooling {
		st.pending = append(st.pending, v)
		st.mu.Unlock()
		return nil
	}
	st.mode = throttleCooling
	st.mu.Unlock()

	defer st.arm()
	st.sig.Emit(v)
	st.delivered.Add(1)
	return nil
}

// Pending returns the number of queued emissions.
func (t *Throttled[T, S]) Pending() int {
	t.st.mu.Lock()
	defer t.st.mu.Unlock()
	return len(t.st.pending)
}

// NextAllowed returns the earliest time the next emission may be delivered.
// The zero time means no window has started yet.
func (t *Throttled[T, S]) NextAllowed() time.Time {
	t.st.mu.Lock()
	defer t.st.mu.Unlock()
	return t.st.nextAllowed
}

// Close stops accepting emissions. Already queued emissions keep draining in
// the background; use Wait to block until they are delivered.
func (t *Throttled[T, S]) Close() error {
	t.st.mu.Lock()
	t.st.closed = true
	t.st.mu.Unlock()
	return nil
}

// Wait blocks until the queue is empty and the current window has expired,
// or until ctx is done.
func (t *Throttled[T, S]) Wait(ctx context.Context) error {
	st := t.st
	for {
		st.mu.Lock()
		if st.mode == throttleIdle && len(st.pending) == 0 {
			st.mu.Unlock()
			return nil
		}
		if st.idle == nil {
			st.idle = make(chan struct{})
		}
		idle := st.idle
		st.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stats returns delivery statistics.
func (t *Throttled[T, S]) Stats() Stats {
	st := t.st
	return Stats{
		Emitted:   st.emitted.Load(),
		Delivered: st.delivered.Load(),
		Dropped:   st.dropped.Load(),
		Panics:    st.panics.Load(),
		Pending:   t.Pending(),
	}
}

// arm starts a cooling window.
func (st *throttleState[T, S]) arm() {
	st.mu.Lock()
	st.nextAllowed = time.Now().Add(st.window)
	st.mu.Unlock()

	time.AfterFunc(st.window, st.expire)
}

// expire runs on the timer goroutine at the end of a window.
func (st *throttleState[T, S]) expire() {
	st.mu.Lock()
	if len(st.pending) == 0 {
		st.mode = throttleIdle
		st.pending = nil
		if st.idle != nil {
			close(st.idle)
			st.idle = nil
		}
		st.mu.Unlock()
		return
	}
	v := st.pending[0]
	var zero T
	st.pending[0] = zero
	st.pending = st.pending[1:]
	st.mu.Unlock()

	result := st.exec.Execute(context.Background(), st.sig.Name(), func() {
		st.sig.Emit(v)
	})
	if result.Panicked {
		st.panics.Add(1)
	} else {
		st.delivered.Add(1)
	}

	st.arm()
}
