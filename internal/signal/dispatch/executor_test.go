package dispatch

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dshills/sigslot/internal/logging"
)

func TestExecutor_Success(t *testing.T) {
	e := NewExecutor()

	called := false
	result := e.Execute(context.Background(), "sig", func() { called = true })

	if !called {
		t.Error("expected fn to be called")
	}
	if !result.IsSuccess() {
		t.Errorf("expected success, got %+v", result)
	}
	if result.Signal != "sig" {
		t.Errorf("expected signal name 'sig', got %q", result.Signal)
	}
	if e.Executed() != 1 {
		t.Errorf("expected 1 execution, got %d", e.Executed())
	}
}

func TestExecutor_RecoversPanic(t *testing.T) {
	var gotSignal string
	var gotValue any
	var gotStack []byte

	e := NewExecutor(WithPanicHandler(func(signal string, v any, stack []byte) {
		gotSignal = signal
		gotValue = v
		gotStack = stack
	}))

	result := e.Execute(context.Background(), "boom", func() { panic("bad slot") })

	if !result.IsPanic() {
		t.Fatal("expected panic result")
	}
	if result.PanicValue != "bad slot" {
		t.Errorf("expected panic value 'bad slot', got %v", result.PanicValue)
	}
	if len(result.PanicStack) == 0 {
		t.Error("expected stack trace")
	}
	if gotSignal != "boom" || gotValue != "bad slot" || len(gotStack) == 0 {
		t.Errorf("panic handler got (%q, %v, %d bytes)", gotSignal, gotValue, len(gotStack))
	}
	if e.Panicked() != 1 {
		t.Errorf("expected 1 panic, got %d", e.Panicked())
	}
}

func TestExecutor_PanickingPanicHandler(t *testing.T) {
	e := NewExecutor(WithPanicHandler(func(string, any, []byte) {
		panic("handler also panics")
	}))

	result := e.Execute(context.Background(), "sig", func() { panic("first") })
	if !result.Panicked {
		t.Error("expected panic to be recorded")
	}
}

func TestExecutor_NilPanicHandlerKeepsDefault(t *testing.T) {
	e := NewExecutor(WithPanicHandler(nil))
	if e.panicHandler == nil {
		t.Fatal("expected default panic handler to be kept")
	}
}

func TestLogPanicHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LogLevelDebug, Output: &buf})

	e := NewExecutor(WithPanicHandler(LogPanicHandler(logger)))
	e.Execute(context.Background(), "logged", func() { panic("oops") })

	out := buf.String()
	if !strings.Contains(out, "slot panic: oops") {
		t.Errorf("expected panic to be logged, got: %s", out)
	}
	if !strings.Contains(out, "signal=logged") {
		t.Errorf("expected signal attribute, got: %s", out)
	}
}

func TestExecutor_Observer(t *testing.T) {
	var results []Result
	e := NewExecutor(
		WithPanicHandler(func(string, any, []byte) {}),
		WithObserver(func(r Result) { results = append(results, r) }),
		WithObserver(nil),
	)

	e.Execute(context.Background(), "ok", func() {})
	e.Execute(context.Background(), "bad", func() { panic("x") })

	if len(results) != 2 {
		t.Fatalf("expected 2 observed results, got %d", len(results))
	}
	if results[0].Signal != "ok" || results[0].Panicked {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	if results[1].Signal != "bad" || !results[1].Panicked {
		t.Errorf("unexpected second result: %+v", results[1])
	}
}
