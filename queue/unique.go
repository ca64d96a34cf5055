package queue

// UniqueQueue is a Queue that refuses values already present.
//
// Membership is a linear scan; capacities are expected to be small.
type UniqueQueue[T comparable] struct {
	q Queue[T]
}

// NewUnique returns an empty unique queue backed by storage.
func NewUnique[T comparable](storage []T) UniqueQueue[T] {
	return UniqueQueue[T]{q: New(storage)}
}

func (u *UniqueQueue[T]) Cap() int      { return u.q.Cap() }
func (u *UniqueQueue[T]) Len() int      { return u.q.Len() }
func (u *UniqueQueue[T]) IsEmpty() bool { return u.q.IsEmpty() }
func (u *UniqueQueue[T]) IsFull() bool  { return u.q.IsFull() }

// Contains reports whether v is queued.
func (u *UniqueQueue[T]) Contains(v T) bool {
	found := false
	u.q.Range(func(_ int, x *T) bool {
		if *x == v {
			found = true
			return false
		}
		return true
	})
	return found
}

// Enqueue appends v unless it is already queued. A rejected value is
// handed back with Duplicate or Full; duplicates are checked first.
func (u *UniqueQueue[T]) Enqueue(v T) (T, Result) {
	if u.Contains(v) {
		return v, Duplicate
	}
	return u.q.Enqueue(v)
}

// Dequeue removes and returns the oldest value.
func (u *UniqueQueue[T]) Dequeue() (T, bool) {
	return u.q.Dequeue()
}

// Peek returns the oldest value without removing it.
func (u *UniqueQueue[T]) Peek() (T, bool) {
	return u.q.Peek()
}

// Remove deletes v from the queue, keeping the order of the rest. It
// reports whether v was present.
func (u *UniqueQueue[T]) Remove(v T) bool {
	n := u.q.Len()
	idx := -1
	for i := 0; i < n; i++ {
		if *u.q.At(i) == v {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	for i := idx; i < n-1; i++ {
		*u.q.At(i) = *u.q.At(i + 1)
	}
	var zero T
	last := u.q.At(n - 1)
	*last = zero
	if n == 1 {
		u.q.bounds = bounds{}
	} else {
		u.q.bounds.tail = (u.q.bounds.tail - 1 + len(u.q.buf)) % len(u.q.buf)
	}
	return true
}

// Range calls fn for every queued value from oldest to newest until fn
// returns false.
func (u *UniqueQueue[T]) Range(fn func(i int, v T) bool) {
	u.q.Range(func(i int, v *T) bool { return fn(i, *v) })
}

// Clear drops every queued value.
func (u *UniqueQueue[T]) Clear() {
	u.q.Clear()
}
