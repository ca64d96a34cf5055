package ksync

import "ember/kernel"

// Mutex guards a value with a one-permit semaphore.
type Mutex[T any] struct {
	sem *Semaphore
	v   T
}

// NewMutex returns an unlocked mutex holding v. At most len(waiters)
// tasks can queue for it.
func NewMutex[T any](v T, waiters []Waiter) *Mutex[T] {
	return &Mutex[T]{sem: NewSemaphore(1, waiters), v: v}
}

// Lock returns a future resolving to a guard.
func (m *Mutex[T]) Lock() *Lock[T] {
	return &Lock[T]{m: m, acq: m.sem.Acquire()}
}

// TryLock takes the lock if it is free, without queueing.
func (m *Mutex[T]) TryLock() (Guard[T], error) {
	p, err := m.sem.TryAcquire()
	if err != nil {
		return Guard[T]{}, ErrWouldBlock
	}
	return Guard[T]{v: &m.v, p: p}, nil
}

// Locked reports whether a guard is outstanding.
func (m *Mutex[T]) Locked() bool {
	return m.sem.Available() == 0
}

// Lock is a pending lock acquisition.
type Lock[T any] struct {
	m   *Mutex[T]
	acq *Acquire
}

func (l *Lock[T]) Poll(cx *kernel.Context) (Guard[T], bool) {
	p, ok := l.acq.Poll(cx)
	if !ok {
		return Guard[T]{}, false
	}
	return Guard[T]{v: &l.m.v, p: p}, true
}

// Cancel abandons the acquisition, passing the lock on if it had already
// been handed to this waiter.
func (l *Lock[T]) Cancel() {
	l.acq.Cancel()
}

// Guard grants access to the value until Unlock.
type Guard[T any] struct {
	v *T
	p Permit
}

// Get returns the guarded value. It must not be retained past Unlock.
func (g Guard[T]) Get() *T {
	if !g.p.Valid() {
		panic("ksync: use of an unlocked guard")
	}
	return g.v
}

// Valid reports whether the guard still holds the lock.
func (g Guard[T]) Valid() bool { return g.p.Valid() }

// Unlock releases the lock and hands it to the next waiter, if any.
func (g *Guard[T]) Unlock() {
	g.p.Release()
	g.v = nil
}

// MapGuard narrows g to a part of the guarded value. The returned guard
// owns the lock; g must not be used afterwards.
func MapGuard[T, U any](g *Guard[T], fn func(v *T) *U) Guard[U] {
	v := fn(g.Get())
	p := g.p
	g.p = Permit{}
	g.v = nil
	return Guard[U]{v: v, p: p}
}
