// Package queue implements fixed-capacity ring buffers over caller-supplied
// storage. Nothing here allocates; declare the backing array next to the
// queue as a package-level variable.
package queue

import "errors"

var (
	ErrFull      = errors.New("queue: full")
	ErrDuplicate = errors.New("queue: duplicate value")
)

// Result describes the outcome of an enqueue attempt.
type Result uint8

const (
	OK Result = iota
	Full
	Duplicate
)

func (r Result) String() string {
	switch r {
	case OK:
		return "ok"
	case Full:
		return "full"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Err returns the sentinel error for r, or nil for OK.
func (r Result) Err() error {
	switch r {
	case OK:
		return nil
	case Full:
		return ErrFull
	case Duplicate:
		return ErrDuplicate
	default:
		return errors.New("queue: unknown result")
	}
}

// bounds is the occupied (head, tail) slot range, both inclusive. ok is
// false while the queue is empty.
type bounds struct {
	head int
	tail int
	ok   bool
}

// Queue is a FIFO ring buffer holding at most len(storage) values. The
// zero Queue has no storage and panics on Push; build queues with New.
type Queue[T any] struct {
	buf    []T
	bounds bounds
}

// New returns an empty queue backed by storage.
func New[T any](storage []T) Queue[T] {
	if len(storage) == 0 {
		panic("queue: zero capacity")
	}
	return Queue[T]{buf: storage}
}

// Cap returns the number of slots.
func (q *Queue[T]) Cap() int {
	return len(q.buf)
}

// Len returns the number of queued values.
func (q *Queue[T]) Len() int {
	if !q.bounds.ok {
		return 0
	}
	n := len(q.buf)
	return (q.bounds.tail-q.bounds.head+n)%n + 1
}

// IsEmpty reports whether the queue holds no values.
func (q *Queue[T]) IsEmpty() bool {
	return !q.bounds.ok
}

// IsFull reports whether every slot is occupied.
func (q *Queue[T]) IsFull() bool {
	return q.bounds.ok && q.bounds.head == q.inc(q.bounds.tail)
}

// Enqueue appends v. On a full queue v is handed back with Full.
func (q *Queue[T]) Enqueue(v T) (T, Result) {
	if _, ok := q.Push(v); !ok {
		return v, Full
	}
	var zero T
	return zero, OK
}

// Push appends v and returns the physical slot it was written to, for
// callers that address entries in place with Slot.
func (q *Queue[T]) Push(v T) (int, bool) {
	if len(q.buf) == 0 {
		panic("queue: zero capacity")
	}
	var head, tail int
	if q.bounds.ok {
		head, tail = q.bounds.head, q.inc(q.bounds.tail)
		if head == tail {
			return 0, false
		}
	}
	q.bounds = bounds{head: head, tail: tail, ok: true}
	q.buf[tail] = v
	return tail, true
}

// Dequeue removes and returns the oldest value.
func (q *Queue[T]) Dequeue() (T, bool) {
	var zero T
	if !q.bounds.ok {
		return zero, false
	}
	head, tail := q.bounds.head, q.bounds.tail
	v := q.buf[head]
	q.buf[head] = zero
	if head == tail {
		q.bounds = bounds{}
	} else {
		q.bounds.head = q.inc(head)
	}
	return v, true
}

// Peek returns the oldest value without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	if !q.bounds.ok {
		var zero T
		return zero, false
	}
	return q.buf[q.bounds.head], true
}

// Head returns the physical slot of the oldest value.
func (q *Queue[T]) Head() (int, bool) {
	return q.bounds.head, q.bounds.ok
}

// At returns the i-th queued value counting from the oldest. It panics if
// i is out of range.
func (q *Queue[T]) At(i int) *T {
	if i < 0 || i >= q.Len() {
		panic("queue: index out of range")
	}
	return &q.buf[(q.bounds.head+i)%len(q.buf)]
}

// Slot returns the value stored in physical slot i.
func (q *Queue[T]) Slot(i int) *T {
	return &q.buf[i]
}

// Range calls fn for every queued value from oldest to newest until fn
// returns false.
func (q *Queue[T]) Range(fn func(i int, v *T) bool) {
	n := q.Len()
	for i := 0; i < n; i++ {
		if !fn(i, &q.buf[(q.bounds.head+i)%len(q.buf)]) {
			return
		}
	}
}

// Clear drops every queued value.
func (q *Queue[T]) Clear() {
	var zero T
	for i := range q.buf {
		q.buf[i] = zero
	}
	q.bounds = bounds{}
}

func (q *Queue[T]) inc(i int) int {
	return (i + 1) % len(q.buf)
}
