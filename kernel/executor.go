package kernel

import (
	"sync/atomic"

	"ember/irq"
)

// Stats counts executor loop iterations.
type Stats struct {
	Ticks uint64 // loop iterations
	Polls uint64 // root polls
	Idles uint64 // iterations that put the CPU to sleep
}

// Executor drives one root task on behalf of a Runtime.
type Executor struct {
	rt   Runtime
	root Task
	cx   Context

	ticks atomic.Uint64
	polls atomic.Uint64
	idles atomic.Uint64

	finished atomic.Bool
	panicked atomic.Bool
}

// NewExecutor returns an executor for root. The runtime is woken so the
// first iteration polls.
func NewExecutor(rt Runtime, root Task) *Executor {
	e := &Executor{rt: rt, root: root}
	e.cx.waker = rt
	rt.Wake()
	return e
}

// Tick runs one loop iteration and reports whether the root task is done.
//
// With interrupts masked it checks readiness. If ready, the state is
// snapshotted, interrupts are restored and the root is polled. Otherwise
// interrupts are restored and the CPU idles until the next one.
func (e *Executor) Tick() bool {
	if e.finished.Load() {
		return true
	}
	e.ticks.Add(1)

	s := irq.Disable()
	if !e.rt.IsReady() {
		irq.Restore(s)
		e.idles.Add(1)
		e.rt.Idle()
		return false
	}
	e.rt.Snapshot(s.CS())
	irq.Restore(s)

	e.polls.Add(1)
	if e.poll() {
		e.finished.Store(true)
		return true
	}
	return false
}

func (e *Executor) poll() (done bool) {
	defer func() {
		if r := recover(); r != nil {
			e.panicked.Store(true)
			e.reportPanic(r)
			done = true
		}
	}()
	e.cx.taskID = 0
	return e.root.Poll(&e.cx)
}

// Run drives the root task to completion and then keeps the runtime shut
// down. It never returns.
func (e *Executor) Run() {
	for !e.Tick() {
	}
	for {
		e.rt.Shutdown()
	}
}

// Stats returns a copy of the loop counters. Safe to call from any
// goroutine.
func (e *Executor) Stats() Stats {
	return Stats{
		Ticks: e.ticks.Load(),
		Polls: e.polls.Load(),
		Idles: e.idles.Load(),
	}
}

// Finished reports whether the root task completed or panicked.
func (e *Executor) Finished() bool { return e.finished.Load() }

// Panicked reports whether the root task was stopped by a panic.
func (e *Executor) Panicked() bool { return e.panicked.Load() }

// Run polls root on rt until it finishes, then shuts rt down forever.
func Run(rt Runtime, root Task) {
	NewExecutor(rt, root).Run()
}
