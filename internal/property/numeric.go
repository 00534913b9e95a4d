package property

// Number is the set of types the arithmetic helpers accept.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Add assigns p + n. Like every helper here it runs the full change
// protocol and reports whether the assignment was accepted.
func Add[T Number](p *Property[T], n T) bool {
	return p.Update(func(v T) T { return v + n })
}

// Sub assigns p - n.
func Sub[T Number](p *Property[T], n T) bool {
	return p.Update(func(v T) T { return v - n })
}

// Mul assigns p * n.
func Mul[T Number](p *Property[T], n T) bool {
	return p.Update(func(v T) T { return v * n })
}

// Div assigns p / n.
// Integer division truncates toward zero and panics if n is zero.
func Div[T Number](p *Property[T], n T) bool {
	return p.Update(func(v T) T { return v / n })
}

// Inc assigns p + 1.
func Inc[T Number](p *Property[T]) bool {
	return Add(p, 1)
}

// Dec assigns p - 1.
func Dec[T Number](p *Property[T]) bool {
	return Sub(p, 1)
}

// Append assigns p + s for string properties.
func Append[T ~string](p *Property[T], s T) bool {
	return p.Update(func(v T) T { return v + s })
}
