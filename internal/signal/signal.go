package signal

import (
	"sync"
	"sync/atomic"
	"weak"
)

// core is the type-independent control block of a signal. Connections
// point at it weakly; the signal and its core keep each other alive.
type core struct {
	mu      sync.RWMutex
	name    string
	enabled atomic.Bool

	remove func(id uint64)
	count  func() int
}

// Name returns the signal name.
func (c *core) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// SetName renames the signal.
func (c *core) SetName(name string) {
	c.mu.Lock()
	c.name = name
	c.mu.Unlock()
}

// Enabled reports whether Emit delivers to slots.
func (c *core) Enabled() bool {
	return c.enabled.Load()
}

// SetEnabled toggles the global gate of the signal.
func (c *core) SetEnabled(enabled bool) {
	c.enabled.Store(enabled)
}

// SlotCount returns the number of connected slots.
func (c *core) SlotCount() int {
	return c.count()
}

// entry is one connected slot.
type entry[T any] struct {
	id    uint64
	slot  Slot[T]
	state *connState
}

// Signal is an ordered collection of slots for a payload of type T.
// Emission is synchronous: every enabled slot runs on the caller's goroutine
// in connection order.
//
// Connect and Disconnect may be called concurrently with Emit, including
// from inside a slot. Emit iterates a snapshot of the slot list and skips
// slots disconnected or disabled before dispatch reaches them.
//
// A panicking slot is not recovered: the panic aborts the remaining slots of
// that Emit and propagates to the caller.
type Signal[T any] struct {
	core *core

	mu     sync.RWMutex
	slots  []entry[T] // replaced on write, never mutated in place
	nextID uint64
}

// New creates an enabled signal with the given name.
func New[T any](name string) *Signal[T] {
	s := &Signal[T]{
		core: &core{name: name},
	}
	s.core.enabled.Store(true)
	s.core.remove = s.disconnect
	s.core.count = s.SlotCount
	return s
}

// Name returns the signal name.
func (s *Signal[T]) Name() string {
	return s.core.Name()
}

// SetName renames the signal.
func (s *Signal[T]) SetName(name string) {
	s.core.SetName(name)
}

// Enabled reports whether Emit delivers to slots.
func (s *Signal[T]) Enabled() bool {
	return s.core.Enabled()
}

// SetEnabled toggles the global gate. While disabled, Emit is a no-op and
// slots stay connected.
func (s *Signal[T]) SetEnabled(enabled bool) {
	s.core.SetEnabled(enabled)
}

// Controller returns the type-independent view of the signal.
func (s *Signal[T]) Controller() Controller {
	return s.core
}

// Connect registers slot and returns its connection.
// Connect panics if slot is nil.
func (s *Signal[T]) Connect(slot Slot[T]) *Connection {
	if slot == nil {
		panic(ErrNilSlot)
	}

	state := newConnState()

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	slots := make([]entry[T], len(s.slots), len(s.slots)+1)
	copy(slots, s.slots)
	s.slots = append(slots, entry[T]{id: id, slot: slot, state: state})
	s.mu.Unlock()

	return &Connection{
		id:    id,
		owner: weak.Make(s.core),
		state: state,
	}
}

// ConnectFunc is a convenience method for connecting a function.
func (s *Signal[T]) ConnectFunc(fn func(v T)) *Connection {
	if fn == nil {
		panic(ErrNilSlot)
	}
	return s.Connect(SlotFunc[T](fn))
}

// Emit invokes every connected, enabled slot with v in connection order.
func (s *Signal[T]) Emit(v T) {
	if !s.core.enabled.Load() {
		return
	}

	s.mu.RLock()
	slots := s.slots
	s.mu.RUnlock()

	for _, e := range slots {
		if !e.state.active() {
			continue
		}
		e.slot.Invoke(v)
	}
}

// SlotCount returns the number of connected slots.
func (s *Signal[T]) SlotCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

// DisconnectAll removes every slot.
func (s *Signal[T]) DisconnectAll() {
	s.mu.Lock()
	slots := s.slots
	s.slots = nil
	s.mu.Unlock()

	for _, e := range slots {
		e.state.connected.Store(false)
	}
}

// disconnect removes the slot with the given id.
func (s *Signal[T]) disconnect(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.slots {
		if e.id != id {
			continue
		}
		e.state.connected.Store(false)
		slots := make([]entry[T], 0, len(s.slots)-1)
		slots = append(slots, s.slots[:i]...)
		s.slots = append(slots, s.slots[i+1:]...)
		return
	}
}
