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

// TimerSlotFunc is a timer slot. It receives the timer so it can change the
// interval or stop the timer from inside a tick.
type TimerSlotFunc[T any] func(t *Timer[T], payload T)

// Timer emits a payload periodically from a background goroutine.
//
// Start schedules the first tick one interval later. Each tick dispatches
// the payload to the slots and then schedules the next tick using the
// interval current at that moment, so SetInterval called from a slot takes
// effect from the next tick. DisableFromSlot stops the timer once the
// current tick has finished.
//
// A slot that panics is reported through the panic handler and does not stop
// the timer.
type Timer[T any] struct {
	sig    *Signal[T]
	exec   *dispatch.Executor
	logger *logging.Logger

	mu            sync.Mutex
	interval      time.Duration
	running       bool
	stopRequested bool
	stop          chan struct{}
	done          chan struct{}

	ticks  atomic.Uint64
	panics atomic.Uint64
}

// NewTimer creates a stopped timer. Returns ErrInvalidInterval if interval
// is not positive.
func NewTimer[T any](name string, interval time.Duration, opts ...Option) (*Timer[T], error) {
	if interval <= 0 {
		return nil, fmt.Errorf("timer %q: %w", name, ErrInvalidInterval)
	}

	cfg := newConfig(opts)
	return &Timer[T]{
		sig:      New[T](name),
		exec:     cfg.executor,
		logger:   cfg.logger.WithField("signal", name),
		interval: interval,
	}, nil
}

// Connect registers fn and returns its connection.
// Connect panics if fn is nil.
func (t *Timer[T]) Connect(fn TimerSlotFunc[T]) *Connection {
	if fn == nil {
		panic(ErrNilSlot)
	}
	return t.sig.Connect(SlotFunc[T](func(v T) {
		fn(t, v)
	}))
}

// Name returns the timer name.
func (t *Timer[T]) Name() string {
	return t.sig.Name()
}

// SetName renames the timer.
func (t *Timer[T]) SetName(name string) {
	t.sig.SetName(name)
}

// Enabled reports whether ticks are delivered to slots. A disabled timer
// keeps ticking without calling any slot.
func (t *Timer[T]) Enabled() bool {
	return t.sig.Enabled()
}

// SetEnabled toggles delivery of ticks.
func (t *Timer[T]) SetEnabled(enabled bool) {
	t.sig.SetEnabled(enabled)
}

// Emit dispatches payload synchronously on the caller's goroutine, outside
// the tick schedule.
func (t *Timer[T]) Emit(payload T) {
	t.sig.Emit(payload)
}

// Interval returns the current tick interval.
func (t *Timer[T]) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}

// SetInterval changes the interval. It takes effect when the next tick is
// scheduled. Returns ErrInvalidInterval if d is not positive.
func (t *Timer[T]) SetInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("timer %q: %w", t.Name(), ErrInvalidInterval)
	}
	t.mu.Lock()
	t.interval = d
	t.mu.Unlock()
	return nil
}

// Running reports whether ticks are scheduled.
func (t *Timer[T]) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Ticks returns the number of ticks fired since the timer was created.
func (t *Timer[T]) Ticks() uint64 {
	return t.ticks.Load()
}

// Start starts ticking with the given payload.
// Returns ErrTimerRunning if the timer is already running.
func (t *Timer[T]) Start(payload T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return ErrTimerRunning
	}

	t.running = true
	t.stopRequested = false
	t.stop = make(chan struct{})
	t.done = make(chan struct{})

	go t.run(payload, t.stop, t.done)

	t.logger.Debug("timer started, interval %v", t.interval)
	return nil
}

// DisableFromSlot stops the timer after the tick currently being dispatched.
// It is meant to be called from a slot; no further tick is scheduled.
func (t *Timer[T]) DisableFromSlot() {
	t.mu.Lock()
	t.stopRequested = true
	t.mu.Unlock()
}

// Stop stops the timer and waits for an in-flight tick to complete. Stop
// must not be called from a slot; use DisableFromSlot there.
func (t *Timer[T]) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	stop, done := t.stop, t.done
	select {
	case <-stop:
	default:
		close(stop)
	}
	t.mu.Unlock()

	<-done
}

// Close stops the timer. It implements io.Closer.
func (t *Timer[T]) Close() error {
	t.Stop()
	return nil
}

// Stats returns tick statistics. Emitted and Delivered both count ticks.
func (t *Timer[T]) Stats() Stats {
	ticks := t.ticks.Load()
	panics := t.panics.Load()
	return Stats{
		Emitted:   ticks,
		Delivered: ticks - panics,
		Panics:    panics,
	}
}

// run is the tick loop of one Start/Stop cycle.
func (t *Timer[T]) run(payload T, stop <-chan struct{}, done chan<- struct{}) {
	timer := time.NewTimer(t.Interval())

	defer func() {
		timer.Stop()
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
		t.logger.Debug("timer stopped after %d ticks", t.ticks.Load())
		close(done)
	}()

	for {
		select {
		case <-stop:
			return
		case <-timer.C:
		}

		result := t.exec.Execute(context.Background(), t.Name(), func() {
			t.sig.Emit(payload)
		})
		t.ticks.Add(1)
		if result.Panicked {
			t.panics.Add(1)
		}

		t.mu.Lock()
		if t.stopRequested {
			t.mu.Unlock()
			return
		}
		next := t.interval
		t.mu.Unlock()

		timer.Reset(next)
	}
}
