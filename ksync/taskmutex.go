package ksync

import (
	"ember/kernel"
	"ember/queue"
)

// TaskMutex is a mutex owned by a task id rather than a permit. Waiting
// tasks queue by id; unlocking hands ownership straight to the oldest one.
type TaskMutex[T any] struct {
	locked  bool
	owner   kernel.TaskID
	waiters queue.UniqueQueue[kernel.TaskID]
	waker   kernel.Waker
	v       T
}

// NewTaskMutex returns an unlocked mutex holding v.
func NewTaskMutex[T any](v T, waiters []kernel.TaskID) *TaskMutex[T] {
	return &TaskMutex[T]{waiters: queue.NewUnique(waiters), v: v}
}

// Owner returns the owning task, if any.
func (m *TaskMutex[T]) Owner() (kernel.TaskID, bool) {
	return m.owner, m.locked
}

// TryLock takes the lock for id if nobody holds it and nobody is queued.
func (m *TaskMutex[T]) TryLock(id kernel.TaskID) (TaskGuard[T], error) {
	if m.locked || !m.waiters.IsEmpty() {
		return TaskGuard[T]{}, ErrWouldBlock
	}
	m.locked = true
	m.owner = id
	return TaskGuard[T]{m: m, id: id}, nil
}

// Lock returns a future taking the lock for the polling task.
func (m *TaskMutex[T]) Lock() *TaskLock[T] {
	return &TaskLock[T]{m: m}
}

func (m *TaskMutex[T]) unlock(id kernel.TaskID) {
	if !m.locked || m.owner != id {
		panic("ksync: mutex unlocked by a task that does not own it")
	}
	next, ok := m.waiters.Dequeue()
	if !ok {
		m.locked = false
		m.owner = 0
		return
	}
	m.owner = next
	if m.waker != nil {
		m.waker.Wake()
	}
}

// TaskLock is a pending TaskMutex acquisition.
type TaskLock[T any] struct {
	m      *TaskMutex[T]
	id     kernel.TaskID
	queued bool
	done   bool
}

func (l *TaskLock[T]) Poll(cx *kernel.Context) (TaskGuard[T], bool) {
	if l.done {
		panic("ksync: lock polled after completion")
	}
	m := l.m
	id := cx.TaskID()
	if l.queued && id != l.id {
		panic("ksync: lock polled from another task")
	}
	l.id = id

	switch {
	case l.queued && m.locked && m.owner == id:
		// Promoted by the previous owner.
	case !m.locked && m.waiters.IsEmpty():
		m.locked = true
		m.owner = id
	case !l.queued && m.locked && m.owner == id:
		panic("ksync: task locks a mutex it already owns")
	default:
		if !l.queued {
			switch _, r := m.waiters.Enqueue(id); r {
			case queue.OK:
				l.queued = true
			case queue.Duplicate:
				panic("ksync: task waits twice on the same mutex")
			}
			// Full: retry on the next poll.
		}
		m.waker = cx.Waker()
		return TaskGuard[T]{}, false
	}
	l.done = true
	return TaskGuard[T]{m: m, id: id}, true
}

// Cancel abandons the acquisition. A lock already promoted to this task
// is passed on to the next waiter.
func (l *TaskLock[T]) Cancel() {
	if l.done || !l.queued {
		l.done = true
		return
	}
	l.done = true
	m := l.m
	if m.locked && m.owner == l.id {
		m.unlock(l.id)
		return
	}
	m.waiters.Remove(l.id)
}

// TaskGuard grants access to the value until Unlock.
type TaskGuard[T any] struct {
	m  *TaskMutex[T]
	id kernel.TaskID
}

// Get returns the guarded value.
func (g TaskGuard[T]) Get() *T {
	if g.m == nil {
		panic("ksync: use of an unlocked guard")
	}
	return &g.m.v
}

// Valid reports whether the guard still holds the lock.
func (g TaskGuard[T]) Valid() bool { return g.m != nil }

// Unlock passes ownership to the oldest queued task or frees the mutex.
func (g *TaskGuard[T]) Unlock() {
	if g.m == nil {
		return
	}
	m := g.m
	g.m = nil
	m.unlock(g.id)
}
