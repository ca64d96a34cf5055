package irq

import "sync/atomic"

// Cell holds a value shared between interrupt handlers and the foreground.
//
// Every access to the payload needs a critical section, so a handler can
// never observe a half-written value.
type Cell[T any] struct {
	v T
}

// NewCell returns a cell holding v.
func NewCell[T any](v T) Cell[T] {
	return Cell[T]{v: v}
}

// Borrow returns the payload for the duration of the critical section.
func (c *Cell[T]) Borrow(cs *CriticalSection) *T {
	_ = cs
	return &c.v
}

// Load copies the payload out under a critical section.
func (c *Cell[T]) Load() T {
	return With(func(*CriticalSection) T { return c.v })
}

// Store replaces the payload under a critical section.
func (c *Cell[T]) Store(v T) {
	Free(func(*CriticalSection) { c.v = v })
}

// Update runs fn on the payload under a critical section.
func (c *Cell[T]) Update(fn func(v *T)) {
	Free(func(*CriticalSection) { fn(&c.v) })
}

// Flag is a single-bit signal that may be raised from any context without a
// critical section. Reads and writes are atomic so an interrupt can never
// tear them.
type Flag struct {
	v atomic.Bool
}

// Raise sets the flag.
func (f *Flag) Raise() { f.v.Store(true) }

// Clear resets the flag.
func (f *Flag) Clear() { f.v.Store(false) }

// IsSet reports whether the flag is raised.
func (f *Flag) IsSet() bool { return f.v.Load() }

// Take clears the flag and reports whether it was raised.
func (f *Flag) Take() bool { return f.v.Swap(false) }
