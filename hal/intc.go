package hal

import (
	"sync"
	"sync/atomic"

	"ember/irq"
)

// softIRQ is an interrupt controller built from goroutines. Every attached
// vector gets a goroutine that waits for its line, runs the handler inside
// a critical section and then wakes the idling core.
//
// Both the host simulator and TinyGo boards use it. On TinyGo the
// scheduler sleeps the core while every goroutine is blocked.
//
// A line pended before its vector is attached stays latched and is serviced
// right after Attach, like a peripheral flag raised while the vector was
// still masked.
type softIRQ struct {
	mu       sync.Mutex
	handlers [NumVectors]Handler
	lines    [NumVectors]chan struct{}
	counts   [NumVectors]atomic.Uint64

	wake chan struct{}

	timerMu   sync.Mutex
	timerStop func()
}

func newSoftIRQ() *softIRQ {
	c := &softIRQ{wake: make(chan struct{}, 1)}
	for i := range c.lines {
		c.lines[i] = make(chan struct{}, 1)
	}
	return c
}

func (c *softIRQ) Attach(v Vector, h Handler) error {
	if v >= NumVectors {
		return ErrUnknownVector
	}
	if h == nil {
		return ErrUnknownVector
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handlers[v] != nil {
		return ErrVectorInUse
	}
	c.handlers[v] = h
	go c.serve(v, c.lines[v], h)
	return nil
}

func (c *softIRQ) serve(v Vector, ch <-chan struct{}, h Handler) {
	for range ch {
		irq.Free(h)
		c.counts[v].Add(1)
		c.signal()
	}
}

func (c *softIRQ) Line(v Vector) Line {
	if v >= NumVectors {
		return nil
	}
	return softLine{c: c, v: v}
}

func (c *softIRQ) Count(v Vector) uint64 {
	if v >= NumVectors {
		return 0
	}
	return c.counts[v].Load()
}

func (c *softIRQ) pend(v Vector) {
	select {
	case c.lines[v] <- struct{}{}:
	default:
	}
}

func (c *softIRQ) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// idle blocks until a handler has run since the last idle. A handler that
// ran between the executor's readiness check and this call has already
// left a token, so no wakeup is lost.
func (c *softIRQ) idle() {
	<-c.wake
}

type softLine struct {
	c *softIRQ
	v Vector
}

func (l softLine) Pend() { l.c.pend(l.v) }
