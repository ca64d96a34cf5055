// Package irq provides critical sections, the only mutual exclusion
// primitive of the runtime.
//
// A critical section runs with interrupts masked. Code that must only run
// inside one takes a *CriticalSection argument, obtained only from Free,
// With or Disable.
package irq

// CriticalSection is a token proving that interrupts are masked.
type CriticalSection struct {
	_ [0]func() // not comparable.
}

var token CriticalSection

// State is the interrupt mask saved by Disable.
type State struct {
	s state
}

// Disable masks interrupts and returns the previous mask.
//
// Every Disable must be paired with exactly one Restore.
func Disable() State {
	return State{s: disable()}
}

// Restore restores the interrupt mask saved by Disable.
func Restore(s State) {
	restore(s.s)
}

// CS returns the critical section token for the region opened by Disable.
func (s State) CS() *CriticalSection {
	return &token
}

// Free runs fn with interrupts masked.
func Free(fn func(cs *CriticalSection)) {
	s := Disable()
	defer Restore(s)
	fn(&token)
}

// With runs fn with interrupts masked and returns its result.
func With[T any](fn func(cs *CriticalSection) T) T {
	s := Disable()
	defer Restore(s)
	return fn(&token)
}
