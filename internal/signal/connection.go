package signal

import (
	"sync/atomic"
	"weak"
)

// connState is shared between a Connection and its slot entry.
type connState struct {
	connected atomic.Bool
	enabled   atomic.Bool
}

func newConnState() *connState {
	s := &connState{}
	s.connected.Store(true)
	s.enabled.Store(true)
	return s
}

func (s *connState) active() bool {
	return s.connected.Load() && s.enabled.Load()
}

// Connection represents one slot's subscription to a signal.
//
// A Connection only holds a weak reference to its signal. Once the signal is
// no longer reachable and has been collected, Signal returns nil and
// Disconnect does nothing. All methods are safe on a nil Connection.
type Connection struct {
	id    uint64
	owner weak.Pointer[core]
	state *connState
}

// ID returns the slot identifier within the owning signal.
func (c *Connection) ID() uint64 {
	if c == nil {
		return 0
	}
	return c.id
}

// Signal returns the owning signal, or nil if it no longer exists.
func (c *Connection) Signal() Controller {
	if c == nil {
		return nil
	}
	if owner := c.owner.Value(); owner != nil {
		return owner
	}
	return nil
}

// Connected reports whether the slot is still attached to a live signal.
func (c *Connection) Connected() bool {
	if c == nil || !c.state.connected.Load() {
		return false
	}
	return c.owner.Value() != nil
}

// Enabled reports whether the slot receives emissions.
func (c *Connection) Enabled() bool {
	if c == nil {
		return false
	}
	return c.state.enabled.Load()
}

// SetEnabled pauses or resumes delivery to this slot only.
func (c *Connection) SetEnabled(enabled bool) {
	if c == nil {
		return
	}
	c.state.enabled.Store(enabled)
}

// Disconnect removes the slot from its signal.
// Calling it more than once, or after the signal is gone, is a no-op.
func (c *Connection) Disconnect() {
	if c == nil {
		return
	}
	if !c.state.connected.CompareAndSwap(true, false) {
		return
	}
	if owner := c.owner.Value(); owner != nil {
		owner.remove(c.id)
	}
}

// Connections collects the connections of one owner so they can be
// released together.
type Connections []*Connection

// Add appends c and returns it.
func (cs *Connections) Add(c *Connection) *Connection {
	*cs = append(*cs, c)
	return c
}

// DisconnectAll disconnects every collected connection and empties the list.
func (cs *Connections) DisconnectAll() {
	for _, c := range *cs {
		c.Disconnect()
	}
	*cs = nil
}
