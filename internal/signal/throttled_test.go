package signal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewThrottled_InvalidWindow(t *testing.T) {
	for _, window := range []time.Duration{0, -time.Second} {
		_, err := NewThrottled[int](New[int]("bad"), window)
		if !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("window %v: expected ErrInvalidWindow, got %v", window, err)
		}
	}
}

func TestThrottled_BurstIsSpreadOverWindows(t *testing.T) {
	sig := New[int]("burst")

	var mu sync.Mutex
	var got []int
	sig.ConnectFunc(func(v int) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	})

	th, err := NewThrottled[int](sig, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewThrottled failed: %v", err)
	}

	for i := 1; i <= 10; i++ {
		th.Emit(i)
	}

	mu.Lock()
	during := len(got)
	mu.Unlock()
	if during >= 10 {
		t.Errorf("expected fewer than 10 deliveries during the burst, got %d", during)
	}
	if th.Pending() == 0 {
		t.Error("expected queued emissions after the burst")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := th.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 10 {
		t.Fatalf("expected all 10 emissions delivered, got %d", len(got))
	}
	for i, v := range got {
		if v != i+1 {
			t.Errorf("delivery %d: expected %d, got %d", i, i+1, v)
		}
	}
}

func TestThrottled_FirstEmitIsImmediate(t *testing.T) {
	sig := New[string]("immediate")

	var got string
	sig.ConnectFunc(func(v string) { got = v })

	th, _ := NewThrottled[string](sig, time.Hour)
	th.Emit("now")

	if got != "now" {
		t.Errorf("expected immediate delivery on the caller, got %q", got)
	}
	if th.NextAllowed().IsZero() {
		t.Error("expected a window to be started")
	}
}

func TestThrottled_SpacedEmitsAreNotQueued(t *testing.T) {
	sig := New[int]("spaced")
	var calls atomic.Int32
	sig.ConnectFunc(func(int) { calls.Add(1) })

	th, _ := NewThrottled[int](sig, 10*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		th.Emit(i)
		if calls.Load() != int32(i+1) {
			t.Fatalf("emit %d: expected immediate delivery", i)
		}
		if err := th.Wait(ctx); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
}

func TestThrottled_CloseKeepsDraining(t *testing.T) {
	sig := New[int]("closing")
	var calls atomic.Int32
	sig.ConnectFunc(func(int) { calls.Add(1) })

	th, _ := NewThrottled[int](sig, 5*time.Millisecond)
	th.Emit(1)
	th.Emit(2)
	th.Emit(3)

	if err := th.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	th.Emit(4)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := th.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	if calls.Load() != 3 {
		t.Errorf("expected 3 deliveries, got %d", calls.Load())
	}
	stats := th.Stats()
	if stats.Emitted != 3 || stats.Dropped != 1 || stats.Delivered != 3 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestThrottled_WaitContext(t *testing.T) {
	th, _ := NewThrottled[int](New[int]("slow"), time.Hour)
	th.Emit(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := th.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestThrottled_QueuedPanicIsReported(t *testing.T) {
	sig := New[int]("panicky")
	sig.ConnectFunc(func(v int) {
		if v == 2 {
			panic("bad value")
		}
	})

	var reported atomic.Value
	th, _ := NewThrottled[int](sig, 5*time.Millisecond,
		WithPanicHandler(func(name string, v any, _ []byte) {
			reported.Store(name)
		}),
	)

	th.Emit(1)
	th.Emit(2)
	th.Emit(3)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := th.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	if reported.Load() != "panicky" {
		t.Errorf("expected panic reported for 'panicky', got %v", reported.Load())
	}
	stats := th.Stats()
	if stats.Panics != 1 || stats.Delivered != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestThrottled_WrapsExtended(t *testing.T) {
	ext := NewExtended[string]("ext")
	var got string
	ext.Connect(func(s *ExtendedSignal[string], v string) {
		got = s.Name() + "=" + v
	})

	th, _ := NewThrottled[string](ext, time.Millisecond)
	th.Emit("x")

	if got != "ext=x" {
		t.Errorf("expected 'ext=x', got %q", got)
	}
	if th.Signal() != ext || th.Name() != "ext" {
		t.Error("expected throttled signal to expose the wrapped signal")
	}
}

func TestThrottleMode_String(t *testing.T) {
	if throttleIdle.String() != "idle" || throttleCooling.String() != "cooling" {
		t.Error("unexpected mode names")
	}
	if throttleMode(99).String() != "unknown" {
		t.Error("expected 'unknown' for invalid mode")
	}
}
