package signal

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"sync"
)

// Set maps string keys to lazily created signals of one kind.
//
// Get creates the signal for a key on first access, named after the key, and
// returns the same instance on every later access. Creation is serialized,
// so racing first accesses still produce one instance per key.
type Set[T any, S Dispatcher[T]] struct {
	mu      sync.RWMutex
	signals map[string]S
	factory func(name string) S
}

// NewSet creates an empty set whose members are built by factory.
func NewSet[T any, S Dispatcher[T]](factory func(name string) S) *Set[T, S] {
	return &Set[T, S]{
		signals: make(map[string]S),
		factory: factory,
	}
}

// NewSignalSet creates a set of plain signals.
func NewSignalSet[T any]() *Set[T, *Signal[T]] {
	return NewSet[T](New[T])
}

// NewExtendedSet creates a set of extended signals.
func NewExtendedSet[T any]() *Set[T, *ExtendedSignal[T]] {
	return NewSet[T](NewExtended[T])
}

// Get returns the signal for key, creating it on first access.
// Returns ErrEmptyKey if key is empty.
func (s *Set[T, S]) Get(key string) (S, error) {
	if key == "" {
		var zero S
		return zero, ErrEmptyKey
	}

	s.mu.RLock()
	sig, ok := s.signals[key]
	s.mu.RUnlock()
	if ok {
		return sig, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sig, ok := s.signals[key]; ok {
		return sig, nil
	}
	sig = s.factory(key)
	s.signals[key] = sig
	return sig, nil
}

// MustGet is like Get but panics on an empty key.
func (s *Set[T, S]) MustGet(key string) S {
	sig, err := s.Get(key)
	if err != nil {
		panic(err)
	}
	return sig
}

// Exists reports whether a signal was created for key. It never creates one.
func (s *Set[T, S]) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.signals[key]
	return ok
}

// Len returns the number of signals in the set.
func (s *Set[T, S]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.signals)
}

// Names returns the keys present at call time, in sorted order. The
// sequence can be ranged over any number of times and does not observe
// keys added afterwards.
func (s *Set[T, S]) Names() iter.Seq[string] {
	s.mu.RLock()
	names := make([]string, 0, len(s.signals))
	for name := range s.signals {
		names = append(names, name)
	}
	s.mu.RUnlock()

	slices.Sort(names)
	return slices.Values(names)
}

// Emit broadcasts v to every signal in the set. Members are visited in
// unspecified order; each member delivers to its own slots in order.
func (s *Set[T, S]) Emit(v T) {
	for _, sig := range s.members() {
		sig.Emit(v)
	}
}

// Remove deletes the signal for key, closing it if it implements io.Closer.
// Returns false if key was not present.
func (s *Set[T, S]) Remove(key string) (bool, error) {
	s.mu.Lock()
	sig, ok := s.signals[key]
	delete(s.signals, key)
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	if c, ok := any(sig).(io.Closer); ok {
		if err := c.Close(); err != nil {
			return true, fmt.Errorf("closing signal %q: %w", key, err)
		}
	}
	return true, nil
}

// Close closes every member that implements io.Closer, such as threaded
// signals, and empties the set.
func (s *Set[T, S]) Close() error {
	s.mu.Lock()
	signals := s.signals
	s.signals = make(map[string]S)
	s.mu.Unlock()

	var errs []error
	for key, sig := range signals {
		if c, ok := any(sig).(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing signal %q: %w", key, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (s *Set[T, S]) members() []S {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := make([]S, 0, len(s.signals))
	for _, sig := range s.signals {
		members = append(members, sig)
	}
	return members
}
