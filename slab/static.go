package slab

import "ember/irq"

// Static is storage for a value that may be handed out only once in the
// lifetime of the process.
//
// The taken flag is only ever mutated inside a critical section, so an
// interrupt racing the foreground cannot obtain a second handle.
type Static[T any] struct {
	taken bool
	mem   Mem[T]
}

// Take returns the handle on the first call and false on every later one.
func (s *Static[T]) Take() (Slab[T], bool) {
	ok := irq.With(func(*irq.CriticalSection) bool {
		if s.taken {
			return false
		}
		s.taken = true
		return true
	})
	if !ok {
		return Slab[T]{}, false
	}
	return s.mem.Alloc(), true
}

// MustTake is Take for callers that run once by construction. A second call
// is a programmer error and panics.
func (s *Static[T]) MustTake() Slab[T] {
	sl, ok := s.Take()
	if !ok {
		panic("slab: static storage already taken")
	}
	return sl
}

// Taken reports whether the handle has been handed out.
func (s *Static[T]) Taken() bool {
	return irq.With(func(*irq.CriticalSection) bool { return s.taken })
}
