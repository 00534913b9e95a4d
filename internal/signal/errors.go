package signal

import "errors"

// Sentinel errors for the signal package.
var (
	// ErrInvalidWindow is returned when a throttling window is not positive.
	ErrInvalidWindow = errors.New("throttle window must be positive")

	// ErrInvalidInterval is returned when a timer interval is not positive.
	ErrInvalidInterval = errors.New("timer interval must be positive")

	// ErrEmptyKey is returned when a signal set is asked for an empty key.
	ErrEmptyKey = errors.New("signal key cannot be empty")

	// ErrNilSlot is the panic value of Connect when given a nil slot.
	ErrNilSlot = errors.New("slot cannot be nil")

	// ErrTimerRunning is returned when Start is called on a running timer.
	ErrTimerRunning = errors.New("timer is already running")

	// ErrClosed is returned by TryEmit on a closed decorator.
	ErrClosed = errors.New("signal is closed")
)
