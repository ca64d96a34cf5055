package ksync

import (
	"ember/kernel"
	"ember/queue"
)

// Channel is a bounded FIFO between tasks. The executor is woken when the
// channel goes from empty to non-empty and from full to non-full, the two
// transitions that can unblock the other side.
type Channel[T any] struct {
	q     queue.Queue[T]
	waker kernel.Waker
}

// NewChannel returns an empty channel backed by storage.
func NewChannel[T any](storage []T) *Channel[T] {
	return &Channel[T]{q: queue.New(storage)}
}

func (c *Channel[T]) Len() int      { return c.q.Len() }
func (c *Channel[T]) Cap() int      { return c.q.Cap() }
func (c *Channel[T]) IsEmpty() bool { return c.q.IsEmpty() }
func (c *Channel[T]) IsFull() bool  { return c.q.IsFull() }

// TryEnqueue appends v without waiting. A full channel hands v back.
func (c *Channel[T]) TryEnqueue(v T) (T, queue.Result) {
	wasEmpty := c.q.IsEmpty()
	v, r := c.q.Enqueue(v)
	if r == queue.OK && wasEmpty {
		c.wake()
	}
	return v, r
}

// TryDequeue removes the oldest value without waiting.
func (c *Channel[T]) TryDequeue() (T, bool) {
	wasFull := c.q.IsFull()
	v, ok := c.q.Dequeue()
	if ok && wasFull {
		c.wake()
	}
	return v, ok
}

// Enqueue returns a future that appends v once there is room.
func (c *Channel[T]) Enqueue(v T) *Send[T] {
	return &Send[T]{c: c, v: v}
}

// Dequeue returns a future resolving to the oldest value.
func (c *Channel[T]) Dequeue() *Recv[T] {
	return &Recv[T]{c: c}
}

func (c *Channel[T]) wake() {
	if c.waker != nil {
		c.waker.Wake()
	}
}

// Send is a pending Enqueue.
type Send[T any] struct {
	c    *Channel[T]
	v    T
	done bool
}

func (s *Send[T]) Poll(cx *kernel.Context) (struct{}, bool) {
	if s.done {
		return struct{}{}, true
	}
	s.c.waker = cx.Waker()
	if _, r := s.c.TryEnqueue(s.v); r != queue.OK {
		return struct{}{}, false
	}
	var zero T
	s.v = zero
	s.done = true
	return struct{}{}, true
}

// Recv is a pending Dequeue.
type Recv[T any] struct {
	c *Channel[T]
}

func (r *Recv[T]) Poll(cx *kernel.Context) (T, bool) {
	r.c.waker = cx.Waker()
	return r.c.TryDequeue()
}
