package slab

// ArcMem is static storage for a reference counted value.
type ArcMem[T any] struct {
	count uint
	mem   Mem[T]
}

// Arc is a shared handle to a value in ArcMem. The value is dropped when
// the last handle is dropped.
//
// Counts are not atomic: handles must only be cloned and dropped from the
// foreground.
type Arc[T any] struct {
	m *ArcMem[T]
}

// NewArc initializes m with v and returns the first handle.
func NewArc[T any](m *ArcMem[T], v T) Arc[T] {
	m.mem.Alloc().Get(v)
	m.count = 1
	return Arc[T]{m: m}
}

// Valid reports whether the handle still refers to a value.
func (a Arc[T]) Valid() bool {
	return a.m != nil
}

// Get returns the shared value.
func (a Arc[T]) Get() *T {
	if a.m == nil {
		panic("slab: use of a dropped arc")
	}
	return &a.m.mem.v
}

// Clone returns a new handle to the same value.
func (a Arc[T]) Clone() Arc[T] {
	if a.m == nil {
		panic("slab: clone of a dropped arc")
	}
	a.m.count++
	return a
}

// StrongCount returns the number of live handles.
func (a Arc[T]) StrongCount() uint {
	if a.m == nil {
		return 0
	}
	return a.m.count
}

// Drop releases this handle.
func (a *Arc[T]) Drop() {
	if a.m == nil {
		return
	}
	a.m.count--
	if a.m.count == 0 {
		b := Box[T]{mem: &a.m.mem}
		b.Drop()
	}
	a.m = nil
}
