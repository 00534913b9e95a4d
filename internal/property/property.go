// Package property provides observable values with a cancellable change
// protocol.
//
// Every assignment first emits a Change on the property's changing signal.
// Any slot may cancel the change; when one does, the value stays as it was
// and nothing else happens. Otherwise the value is replaced and the changed
// signal is emitted with the property in its new state.
//
//	age := property.New("age", 0)
//	age.Changing().ConnectFunc(func(c *property.Change[int]) {
//	    if c.New < 0 {
//	        c.Cancel()
//	    }
//	})
//	age.Set(-1) // false, age is still 0
//
// All changing slots run even after one of them cancels, and a cancel
// cannot be taken back. Disabling the changing signal disables the veto.
//
// Set is last-writer-wins: when assignments race, Change.Old is the value
// read when the assignment started. Update and the arithmetic helpers are
// read-modify-write operations that never lose a concurrent assignment; if
// the value moved while the changing slots ran, the new value is computed
// again from the fresh one and the changing slots see the retried proposal.
// A changing slot must therefore not assign the property it is vetting
// during an Update.
package property

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/dshills/sigslot/internal/signal"
)

// Change describes one pending assignment. Changing slots receive a pointer
// and may call Cancel.
type Change[T any] struct {
	// Property is the property being assigned.
	Property *Property[T]

	// Old is the value before the assignment.
	Old T

	// New is the proposed value.
	New T

	cancelled bool
}

// Cancel aborts the assignment.
func (c *Change[T]) Cancel() {
	c.cancelled = true
}

// Cancelled reports whether a slot has cancelled the assignment so far.
func (c *Change[T]) Cancelled() bool {
	return c.cancelled
}

// Property holds a value whose assignments are observed by two signals.
//
// The value is only ever replaced through Set and the helpers built on it.
// Slots may assign the property again from inside a notification; the nested
// assignment runs its own complete protocol.
type Property[T any] struct {
	name  string
	equal func(a, b T) bool

	mu      sync.RWMutex
	value   T
	version uint64

	changing *signal.Signal[*Change[T]]
	changed  *signal.Signal[*Property[T]]
}

// Option configures a Property.
type Option[T any] func(*Property[T])

// WithEqual sets the function used by Equal. By default comparable values
// are compared with == and everything else with reflect.DeepEqual.
func WithEqual[T any](fn func(a, b T) bool) Option[T] {
	return func(p *Property[T]) {
		if fn != nil {
			p.equal = fn
		}
	}
}

// New creates a property holding initial. Its signals are named
// "<name>.value_changing" and "<name>.value_changed".
func New[T any](name string, initial T, opts ...Option[T]) *Property[T] {
	p := &Property[T]{
		name:     name,
		value:    initial,
		equal:    defaultEqual[T],
		changing: signal.New[*Change[T]](name + ".value_changing"),
		changed:  signal.New[*Property[T]](name + ".value_changed"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the property name.
func (p *Property[T]) Name() string {
	return p.name
}

// Value returns the current value.
func (p *Property[T]) Value() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Changing returns the signal emitted before every assignment.
func (p *Property[T]) Changing() *signal.Signal[*Change[T]] {
	return p.changing
}

// Changed returns the signal emitted after every accepted assignment.
func (p *Property[T]) Changed() *signal.Signal[*Property[T]] {
	return p.changed
}

// Set assigns v unless a changing slot cancels. It reports whether the value
// was replaced. Assigning a value equal to the current one still runs the
// whole protocol.
func (p *Property[T]) Set(v T) bool {
	change := &Change[T]{
		Property: p,
		Old:      p.Value(),
		New:      v,
	}

	p.changing.Emit(change)
	if change.cancelled {
		return false
	}

	p.mu.Lock()
	p.value = v
	p.version++
	p.mu.Unlock()

	p.changed.Emit(p)
	return true
}

// Update assigns fn(current) with the same protocol as Set. The value is
// stored only if no other assignment happened since it was read; otherwise
// fn is applied again to the newer value.
func (p *Property[T]) Update(fn func(T) T) bool {
	for {
		p.mu.RLock()
		old, version := p.value, p.version
		p.mu.RUnlock()

		change := &Change[T]{
			Property: p,
			Old:      old,
			New:      fn(old),
		}

		p.changing.Emit(change)
		if change.cancelled {
			return false
		}

		p.mu.Lock()
		if p.version != version {
			p.mu.Unlock()
			continue
		}
		p.value = change.New
		p.version++
		p.mu.Unlock()

		p.changed.Emit(p)
		return true
	}
}

// Equal reports whether p and other hold equal values. Names and identity
// are ignored.
func (p *Property[T]) Equal(other *Property[T]) bool {
	if other == nil {
		return false
	}
	return p.equal(p.Value(), other.Value())
}

// EqualValue reports whether the property holds a value equal to v.
func (p *Property[T]) EqualValue(v T) bool {
	return p.equal(p.Value(), v)
}

// String formats the current value.
func (p *Property[T]) String() string {
	return fmt.Sprint(p.Value())
}

func defaultEqual[T any](a, b T) bool {
	if strictlyComparable(reflect.TypeFor[T]()) {
		return any(a) == any(b)
	}
	return reflect.DeepEqual(a, b)
}

// strictlyComparable reports whether == on typ can never panic. Interface
// components are excluded because the dynamic value they hold may be a
// slice, map or func.
func strictlyComparable(typ reflect.Type) bool {
	if !typ.Comparable() {
		return false
	}
	switch typ.Kind() {
	case reflect.Interface:
		return false
	case reflect.Array:
		return strictlyComparable(typ.Elem())
	case reflect.Struct:
		for i := range typ.NumField() {
			if !strictlyComparable(typ.Field(i).Type) {
				return false
			}
		}
	}
	return true
}
