package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/sigslot/internal/logging"
	"github.com/dshills/sigslot/internal/property"
)

func newTestLive(cfg *Config) *Live {
	return NewLive(cfg,
		WithLoader(NewLoader(WithEnv(nil))),
		WithLogger(logging.Discard()),
		WithDebounce(10*time.Millisecond),
	)
}

func TestLive_Apply(t *testing.T) {
	lv := newTestLive(Default())

	var windows []time.Duration
	lv.ThrottleWindow.Changed().ConnectFunc(func(p *property.Property[time.Duration]) {
		windows = append(windows, p.Value())
	})
	var reloads int
	lv.Reloaded().ConnectFunc(func(*Config) { reloads++ })

	next := Default()
	next.Throttle.Window = 10 * time.Millisecond
	if err := lv.Apply(next); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if lv.ThrottleWindow.Value() != 10*time.Millisecond {
		t.Errorf("expected window 10ms, got %v", lv.ThrottleWindow.Value())
	}
	if len(windows) != 1 {
		t.Errorf("expected exactly one window change, got %v", windows)
	}
	if reloads != 1 {
		t.Errorf("expected one reload notification, got %d", reloads)
	}

	// Unchanged values are not reassigned.
	lv.Apply(next)
	if len(windows) != 1 {
		t.Errorf("expected no change for identical config, got %v", windows)
	}
}

func TestLive_ApplyRejectsInvalid(t *testing.T) {
	lv := newTestLive(Default())

	bad := Default()
	bad.Logging.Level = "chatty"
	bad.Timer.Interval = 0
	bad.Throttle.Window = 5 * time.Millisecond

	err := lv.Apply(bad)
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}

	var verrs ValidationErrors
	errors.As(err, &verrs)
	if len(verrs) != 2 {
		t.Errorf("expected 2 rejected settings, got %v", verrs)
	}
	if lv.LogLevel.Value() != "info" || lv.TimerInterval.Value() != 500*time.Millisecond {
		t.Error("expected rejected settings to keep their values")
	}
	if lv.ThrottleWindow.Value() != 5*time.Millisecond {
		t.Error("expected valid setting to be applied")
	}
}

func TestLive_CustomVeto(t *testing.T) {
	lv := newTestLive(Default())
	lv.TimerInterval.Changing().ConnectFunc(func(c *property.Change[time.Duration]) {
		if c.New < 100*time.Millisecond {
			c.Cancel()
		}
	})

	next := Default()
	next.Timer.Interval = 10 * time.Millisecond
	if err := lv.Apply(next); err == nil {
		t.Error("expected custom veto to reject the interval")
	}
}

func TestLive_Watch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sigslot.toml")
	if err := os.WriteFile(path, []byte("[timer]\ninterval = \"500ms\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	lv := newTestLive(Default())

	changed := make(chan time.Duration, 4)
	lv.TimerInterval.Changed().ConnectFunc(func(p *property.Property[time.Duration]) {
		changed <- p.Value()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lv.Watch(ctx, path) }()

	// Give the watcher time to register.
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte("[timer]\ninterval = \"200ms\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changed:
		if got != 200*time.Millisecond {
			t.Errorf("expected interval 200ms, got %v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reload not observed")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch did not stop")
	}
}
