// Package slab hands out statically reserved storage without an allocator.
//
// Storage is declared as a package-level Mem (it lands in .bss and costs
// nothing at runtime), turned into a Slab handle with Alloc and initialized
// exactly once with Slab.Get, which yields the owning Box. There is no
// deallocation: Box.Drop only runs the value's destructor and clears the
// bytes so the storage can be initialized again.
package slab

// Dropper is implemented by values that release resources when the box
// owning them is dropped.
type Dropper interface {
	Drop()
}

// Memory is implemented by storage that can hand out a slab.
type Memory[T any] interface {
	Alloc() Slab[T]
}

// Mem is statically reserved storage for one T. Handles point into it, so
// it must not be copied after first use.
type Mem[T any] struct {
	_    noCopy
	live bool
	v    T
}

// noCopy makes go vet's copylocks check flag a Mem passed by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

var _ Memory[int] = (*Mem[int])(nil)

// Alloc returns a handle to the storage. It does not initialize anything.
func (m *Mem[T]) Alloc() Slab[T] {
	return Slab[T]{mem: m}
}

// Live reports whether the storage currently holds an initialized value.
func (m *Mem[T]) Live() bool {
	return m.live
}

// Alloc returns a handle to statically reserved storage.
func Alloc[T any](m *Mem[T]) Slab[T] {
	return m.Alloc()
}

// Adopt returns the owning box for storage that was initialized elsewhere,
// typically by generated code. It reports false if m holds no value.
func Adopt[T any](m *Mem[T]) (Box[T], bool) {
	if m == nil || !m.live {
		return Box[T]{}, false
	}
	return Box[T]{mem: m}, true
}

// Slab is a handle to reserved, uninitialized storage.
type Slab[T any] struct {
	mem *Mem[T]
}

// Valid reports whether the handle refers to storage.
func (s Slab[T]) Valid() bool {
	return s.mem != nil
}

// Get writes v into the storage and returns the box owning it.
//
// Initializing storage that already holds a live value is a protocol
// violation and panics.
func (s Slab[T]) Get(v T) Box[T] {
	if s.mem == nil {
		panic("slab: get on an empty handle")
	}
	if s.mem.live {
		panic("slab: storage already initialized")
	}
	s.mem.v = v
	s.mem.live = true
	return Box[T]{mem: s.mem}
}

// Box owns an initialized value living in slab storage.
type Box[T any] struct {
	mem *Mem[T]
}

// Valid reports whether the box still owns a value.
func (b Box[T]) Valid() bool {
	return b.mem != nil
}

// Get returns the owned value.
func (b Box[T]) Get() *T {
	if b.mem == nil {
		panic("slab: use of a dropped box")
	}
	return &b.mem.v
}

// Drop runs the value's destructor, clears the storage and releases
// ownership. Dropping an empty box is a no-op.
func (b *Box[T]) Drop() {
	if b.mem == nil {
		return
	}
	if d, ok := any(&b.mem.v).(Dropper); ok {
		d.Drop()
	} else if d, ok := any(b.mem.v).(Dropper); ok {
		d.Drop()
	}
	var zero T
	b.mem.v = zero
	b.mem.live = false
	b.mem = nil
}

// Leak gives up ownership without running the destructor. The value stays
// live for the rest of the process.
func (b *Box[T]) Leak() *T {
	if b.mem == nil {
		panic("slab: leak of a dropped box")
	}
	p := &b.mem.v
	b.mem = nil
	return p
}
