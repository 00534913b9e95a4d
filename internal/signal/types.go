package signal

// Slot is the interface for signal callbacks.
type Slot[T any] interface {
	// Invoke handles one emission.
	Invoke(v T)
}

// SlotFunc is a function adapter for Slot.
type SlotFunc[T any] func(v T)

// Invoke implements the Slot interface.
func (f SlotFunc[T]) Invoke(v T) {
	f(v)
}

// Dispatcher is implemented by every signal kind in this package.
// Decorators and sets are generic over it, so a throttled or threaded
// wrapper can sit on top of a plain, extended or already decorated signal.
type Dispatcher[T any] interface {
	// Name returns the diagnostic name of the signal.
	Name() string

	// Emit delivers v to the connected slots.
	Emit(v T)

	// Enabled reports whether emissions are delivered.
	Enabled() bool

	// SetEnabled toggles delivery. Slots stay connected while disabled.
	SetEnabled(enabled bool)
}

// Controller is the type-independent view of a signal that a Connection
// hands back to its owner.
type Controller interface {
	Name() string
	SetName(name string)
	Enabled() bool
	SetEnabled(enabled bool)
	SlotCount() int
}

// Stats contains delivery statistics for decorated signals.
type Stats struct {
	// Emitted is the number of Emit calls accepted.
	Emitted uint64

	// Delivered is the number of emissions dispatched to the wrapped signal.
	Delivered uint64

	// Dropped is the number of Emit calls rejected after Close.
	Dropped uint64

	// Panics is the number of background dispatches where a slot panicked.
	Panics uint64

	// Pending is the number of emissions waiting for delivery.
	Pending int
}

// StatsSource is implemented by decorators that track delivery statistics.
type StatsSource interface {
	Name() string
	Stats() Stats
}
