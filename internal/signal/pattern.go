package signal

import (
	"iter"
	"slices"
	"strings"
)

// Wildcards understood by MatchKey.
const (
	// WildcardSingle matches exactly one key segment.
	WildcardSingle = "*"

	// WildcardMulti matches zero or more key segments.
	WildcardMulti = "**"
)

// keySegments splits a key on '/' and '.', dropping empty segments, so
// "/mainwindow/button/ok" and "mainwindow.button.ok" have the same segments.
func keySegments(key string) []string {
	return strings.FieldsFunc(key, func(r rune) bool {
		return r == '/' || r == '.'
	})
}

// MatchKey reports whether key matches pattern. Both are split into
// segments on '/' and '.'; in pattern "*" matches one segment and "**"
// matches any number of segments, including none.
//
//	MatchKey("/mainwindow/*/ok", "/mainwindow/button/ok")  // true
//	MatchKey("/mainwindow/**", "/mainwindow")              // true
//	MatchKey("key_*", "key_down")                          // false
func MatchKey(pattern, key string) bool {
	if pattern == "" || key == "" {
		return false
	}
	return matchSegments(keySegments(key), keySegments(pattern))
}

func matchSegments(key, pattern []string) bool {
	ki, pi := 0, 0

	for pi < len(pattern) {
		if pattern[pi] == WildcardMulti {
			for ; ki <= len(key); ki++ {
				if matchSegments(key[ki:], pattern[pi+1:]) {
					return true
				}
			}
			return false
		}

		if ki >= len(key) {
			return false
		}
		if pattern[pi] != WildcardSingle && pattern[pi] != key[ki] {
			return false
		}
		ki++
		pi++
	}

	return ki == len(key)
}

// Match returns the keys matching pattern, in sorted order.
func (s *Set[T, S]) Match(pattern string) iter.Seq[string] {
	s.mu.RLock()
	var names []string
	for name := range s.signals {
		if MatchKey(pattern, name) {
			names = append(names, name)
		}
	}
	s.mu.RUnlock()

	slices.Sort(names)
	return slices.Values(names)
}

// EmitMatching emits v on every existing signal whose key matches pattern,
// in key order, and returns how many signals were emitted. It never creates
// signals.
func (s *Set[T, S]) EmitMatching(pattern string, v T) int {
	s.mu.RLock()
	type member struct {
		key string
		sig S
	}
	var matched []member
	for key, sig := range s.signals {
		if MatchKey(pattern, key) {
			matched = append(matched, member{key, sig})
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b member) int {
		return strings.Compare(a.key, b.key)
	})
	for _, m := range matched {
		m.sig.Emit(v)
	}
	return len(matched)
}
