package signal

// ExtendedSlotFunc is a slot that also receives the emitting signal.
type ExtendedSlotFunc[T any] func(sig *ExtendedSignal[T], v T)

// ExtendedSignal is a Signal whose slots receive the emitting signal as
// their first argument, so a slot can rename or disable its own signal, or
// connect and disconnect slots, without capturing it.
type ExtendedSignal[T any] struct {
	sig *Signal[T]
}

// NewExtended creates an enabled extended signal with the given name.
func NewExtended[T any](name string) *ExtendedSignal[T] {
	return &ExtendedSignal[T]{sig: New[T](name)}
}

// Connect registers fn and returns its connection.
// Connect panics if fn is nil.
func (e *ExtendedSignal[T]) Connect(fn ExtendedSlotFunc[T]) *Connection {
	if fn == nil {
		panic(ErrNilSlot)
	}
	return e.sig.Connect(SlotFunc[T](func(v T) {
		fn(e, v)
	}))
}

// Emit invokes every connected, enabled slot with (e, v) in connection order.
func (e *ExtendedSignal[T]) Emit(v T) {
	e.sig.Emit(v)
}

// Name returns the signal name.
func (e *ExtendedSignal[T]) Name() string {
	return e.sig.Name()
}

// SetName renames the signal.
func (e *ExtendedSignal[T]) SetName(name string) {
	e.sig.SetName(name)
}

// Enabled reports whether Emit delivers to slots.
func (e *ExtendedSignal[T]) Enabled() bool {
	return e.sig.Enabled()
}

// SetEnabled toggles the global gate.
func (e *ExtendedSignal[T]) SetEnabled(enabled bool) {
	e.sig.SetEnabled(enabled)
}

// SlotCount returns the number of connected slots.
func (e *ExtendedSignal[T]) SlotCount() int {
	return e.sig.SlotCount()
}

// DisconnectAll removes every slot.
func (e *ExtendedSignal[T]) DisconnectAll() {
	e.sig.DisconnectAll()
}

// Controller returns the type-independent view of the signal.
func (e *ExtendedSignal[T]) Controller() Controller {
	return e.sig.core
}
