package ksync

import (
	"ember/kernel"
	"ember/queue"
)

// Waiter is a queued acquire request. Declare storage for as many waiters
// as may block at once; NewSemaphore takes it as a slice.
type Waiter struct {
	remaining uint // permits still owed
	live      bool // false once granted or cancelled
}

// Semaphore is a counting semaphore with strict FIFO fairness.
//
// Invariant: locking <= permits. A waiter is removed from the ring only
// from the head, once it has been handed its permits or cancelled.
type Semaphore struct {
	permits uint
	locking uint
	waiters queue.Queue[Waiter]
	waker   kernel.Waker
	// stalled is set when an acquire found the waiter ring full.
	stalled bool
}

// NewSemaphore returns a semaphore holding permits, queueing at most
// len(waiters) blocked acquires.
func NewSemaphore(permits uint, waiters []Waiter) *Semaphore {
	return &Semaphore{permits: permits, waiters: queue.New(waiters)}
}

// Permits returns the total capacity.
func (s *Semaphore) Permits() uint { return s.permits }

// Available returns the permits not currently granted.
func (s *Semaphore) Available() uint { return s.permits - s.locking }

// Waiting returns the number of queued waiter slots, including granted or
// cancelled ones not yet reclaimed.
func (s *Semaphore) Waiting() int { return s.waiters.Len() }

// AddPermits grows the capacity and hands the new permits to waiters.
func (s *Semaphore) AddPermits(n uint) {
	if s.permits+n < s.permits {
		panic("ksync: permit count overflow")
	}
	s.permits += n
	s.progress()
}

// TryAcquire is TryAcquireMany(1).
func (s *Semaphore) TryAcquire() (Permit, error) {
	return s.TryAcquireMany(1)
}

// TryAcquireMany grants n permits if they are available right now.
// Asking for more permits than the semaphore holds panics.
func (s *Semaphore) TryAcquireMany(n uint) (Permit, error) {
	if n > s.permits {
		panic("ksync: more permits requested than the semaphore holds")
	}
	if s.permits-s.locking < n {
		return Permit{}, ErrBusy
	}
	s.locking += n
	return Permit{s: s, n: n}, nil
}

// Acquire is AcquireMany(1).
func (s *Semaphore) Acquire() *Acquire {
	return s.AcquireMany(1)
}

// AcquireMany returns a future resolving to a permit for n.
func (s *Semaphore) AcquireMany(n uint) *Acquire {
	return &Acquire{s: s, n: n}
}

func (s *Semaphore) release(n uint) {
	if n > s.locking {
		panic("ksync: released more permits than granted")
	}
	s.locking -= n
	s.progress()
}

// progress hands free permits to waiters from the head of the ring. A
// waiter that cannot be fully served takes what is left, so a later waiter
// never overtakes it.
func (s *Semaphore) progress() {
	avail := s.permits - s.locking
	if avail == 0 || s.waiters.IsEmpty() {
		return
	}
	granted := false
	s.waiters.Range(func(_ int, w *Waiter) bool {
		if !w.live || w.remaining == 0 {
			return true
		}
		granted = true
		if avail <= w.remaining {
			w.remaining -= avail
			s.locking += avail
			avail = 0
			return false
		}
		s.locking += w.remaining
		avail -= w.remaining
		w.remaining = 0
		return true
	})
	if granted && s.waker != nil {
		s.waker.Wake()
	}
}

// reclaim drops dead waiters from the head of the ring. Freeing a slot
// wakes an acquire that found the ring full.
func (s *Semaphore) reclaim() {
	freed := false
	for {
		head, ok := s.waiters.Head()
		if !ok || s.waiters.Slot(head).live {
			break
		}
		s.waiters.Dequeue()
		freed = true
	}
	if freed && s.stalled {
		s.stalled = false
		if s.waker != nil {
			s.waker.Wake()
		}
	}
}

type acquireState uint8

const (
	acquireIdle acquireState = iota
	acquireQueued
	acquireDone
)

// Acquire is a pending semaphore acquisition. A caller that stops polling
// before it resolves must call Cancel.
type Acquire struct {
	s     *Semaphore
	n     uint
	state acquireState
	slot  int
}

func (a *Acquire) Poll(cx *kernel.Context) (Permit, bool) {
	s := a.s
	switch a.state {
	case acquireIdle:
		s.waker = cx.Waker()
		if p, err := s.TryAcquireMany(a.n); err == nil {
			a.state = acquireDone
			return p, true
		}
		slot, ok := s.waiters.Push(Waiter{remaining: a.n, live: true})
		if !ok {
			// Ring is full. reclaim wakes us once a slot frees up.
			s.stalled = true
			return Permit{}, false
		}
		a.slot = slot
		a.state = acquireQueued
		s.progress()
		fallthrough
	case acquireQueued:
		w := s.waiters.Slot(a.slot)
		if w.remaining != 0 {
			s.waker = cx.Waker()
			return Permit{}, false
		}
		w.live = false
		s.reclaim()
		a.state = acquireDone
		return Permit{s: s, n: a.n}, true
	default:
		panic("ksync: acquire polled after completion")
	}
}

// Cancel abandons the acquisition. Permits already handed to this waiter
// go back to the pool and the next waiters are served. Cancelling a
// resolved acquire is a no-op; its permit is released separately.
func (a *Acquire) Cancel() {
	if a.state != acquireQueued {
		a.state = acquireDone
		return
	}
	s := a.s
	w := s.waiters.Slot(a.slot)
	granted := a.n - w.remaining
	*w = Waiter{}
	a.state = acquireDone
	s.reclaim()
	s.release(granted)
}

// Permit is a grant of permits. Release returns them; Forget keeps them
// locked for the rest of the process.
type Permit struct {
	s *Semaphore
	n uint
}

// Count returns the number of permits held.
func (p Permit) Count() uint { return p.n }

// Valid reports whether the permit still holds its grant.
func (p Permit) Valid() bool { return p.s != nil }

// Release returns the permits to the semaphore. Releasing twice is a
// no-op.
func (p *Permit) Release() {
	if p.s == nil {
		return
	}
	s := p.s
	p.s = nil
	s.release(p.n)
}

// Forget drops the permit without returning it.
func (p *Permit) Forget() {
	p.s = nil
}
