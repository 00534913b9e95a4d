package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/sigslot/internal/logging"
	"github.com/dshills/sigslot/internal/property"
	"github.com/dshills/sigslot/internal/signal"
)

// Live holds the settings that can change while the process runs.
//
// Each setting is a property whose changing signal rejects invalid values,
// so a reload carrying a bad value leaves that setting as it was. Callers
// connect to the changed signals to apply new values, and may add their own
// vetoes.
type Live struct {
	LogLevel       *property.Property[string]
	ThrottleWindow *property.Property[time.Duration]
	TimerInterval  *property.Property[time.Duration]

	reloaded *signal.Signal[*Config]
	loader   *Loader
	logger   *logging.Logger
	debounce time.Duration
}

// LiveOption configures a Live.
type LiveOption func(*Live)

// WithLoader sets the loader used by Reload and Watch.
func WithLoader(l *Loader) LiveOption {
	return func(lv *Live) {
		lv.loader = l
	}
}

// WithLogger sets the logger for reload diagnostics.
func WithLogger(l *logging.Logger) LiveOption {
	return func(lv *Live) {
		lv.logger = l
	}
}

// WithDebounce sets how long Watch waits for writes to settle before
// reloading.
func WithDebounce(d time.Duration) LiveOption {
	return func(lv *Live) {
		if d >= 0 {
			lv.debounce = d
		}
	}
}

// NewLive creates live settings initialized from cfg.
func NewLive(cfg *Config, opts ...LiveOption) *Live {
	lv := &Live{
		LogLevel:       property.New("logging.level", cfg.Logging.Level),
		ThrottleWindow: property.New("throttle.window", cfg.Throttle.Window),
		TimerInterval:  property.New("timer.interval", cfg.Timer.Interval),
		reloaded:       signal.New[*Config]("config.reloaded"),
		debounce:       100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(lv)
	}
	if lv.loader == nil {
		lv.loader = NewLoader()
	}
	if lv.logger == nil {
		lv.logger = logging.Default().WithComponent("config")
	}

	lv.LogLevel.Changing().ConnectFunc(func(c *property.Change[string]) {
		if !logging.ValidLevel(c.New) {
			c.Cancel()
		}
	})
	lv.ThrottleWindow.Changing().ConnectFunc(rejectNonPositive)
	lv.TimerInterval.Changing().ConnectFunc(rejectNonPositive)

	return lv
}

func rejectNonPositive(c *property.Change[time.Duration]) {
	if c.New <= 0 {
		c.Cancel()
	}
}

// Reloaded returns the signal emitted after every Apply with the
// configuration that was applied.
func (lv *Live) Reloaded() *signal.Signal[*Config] {
	return lv.reloaded
}

// Apply assigns every setting of cfg that differs from the current value.
// Settings whose assignment was cancelled are reported in the returned
// ValidationErrors; the others are still applied.
func (lv *Live) Apply(cfg *Config) error {
	var errs ValidationErrors

	if !assign(lv.LogLevel, cfg.Logging.Level) {
		errs = append(errs, &ValidationError{Path: "logging.level", Value: cfg.Logging.Level, Message: "rejected"})
	}
	if !assign(lv.ThrottleWindow, cfg.Throttle.Window) {
		errs = append(errs, &ValidationError{Path: "throttle.window", Value: cfg.Throttle.Window, Message: "rejected"})
	}
	if !assign(lv.TimerInterval, cfg.Timer.Interval) {
		errs = append(errs, &ValidationError{Path: "timer.interval", Value: cfg.Timer.Interval, Message: "rejected"})
	}

	lv.reloaded.Emit(cfg)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// assign sets v unless p already holds it. It reports false only for a
// cancelled change.
func assign[T any](p *property.Property[T], v T) bool {
	if p.EqualValue(v) {
		return true
	}
	return p.Set(v)
}

// Reload decodes path and applies it.
func (lv *Live) Reload(path string) error {
	cfg, err := lv.loader.Decode(path)
	if err != nil {
		return fmt.Errorf("reloading %s: %w", path, err)
	}
	if err := lv.Apply(cfg); err != nil {
		return fmt.Errorf("reloading %s: %w", path, err)
	}
	return nil
}

// Watch reloads path whenever it is written, until ctx is done. The parent
// directory is watched so that editors replacing the file are noticed.
// Reload failures are logged and do not stop watching.
func (lv *Live) Watch(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	lv.logger.Debug("watching %s", abs)

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			settle = time.After(lv.debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			lv.logger.Warn("watch error: %v", err)

		case <-settle:
			settle = nil
			if err := lv.Reload(abs); err != nil {
				var verrs ValidationErrors
				if errors.As(err, &verrs) {
					lv.logger.Warn("%v", err)
				} else {
					lv.logger.Error("%v", err)
				}
				continue
			}
			lv.logger.Info("configuration reloaded from %s", abs)
		}
	}
}
