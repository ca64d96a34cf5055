// Package kernel is the cooperative executor: the runtime contract shared
// with interrupt handlers, the task model and the loop that drives a single
// root task.
package kernel

import "ember/irq"

// State is runtime-owned data written by interrupt handlers and read by
// tasks.
//
// Snapshot runs inside the critical section opened by the executor before
// every poll. It copies whatever the handlers produced into the fields
// tasks read, so tasks never observe a value torn by an interrupt.
type State interface {
	Snapshot(cs *irq.CriticalSection)
}

// Waker makes the executor poll the root task again.
type Waker interface {
	Wake()
}

// Runtime is the contract between the executor and the board.
type Runtime interface {
	Waker

	// IsReady reports whether something happened since the last snapshot.
	// It must be safe to call with interrupts masked.
	IsReady() bool

	// Snapshot clears readiness and snapshots the state.
	Snapshot(cs *irq.CriticalSection)

	// Idle sleeps until the next interrupt.
	Idle()

	// Shutdown enters the lowest power state. On hardware it does not
	// return; the executor calls it in a loop regardless.
	Shutdown()
}

// CPU is the power-management half of a board.
type CPU interface {
	Idle()
	PowerDown()
}

// Default is the stock Runtime over a State and a CPU.
//
// S is usually a pointer to the firmware's state struct.
type Default[S State] struct {
	ready irq.Flag
	state S
	cpu   CPU
}

var _ Runtime = (*Default[State])(nil)

// NewDefault returns a runtime that is ready, so the root task is polled
// once before the first interrupt.
func NewDefault[S State](state S, cpu CPU) *Default[S] {
	r := &Default[S]{state: state, cpu: cpu}
	r.ready.Raise()
	return r
}

// Modify runs fn on the state from an interrupt handler and marks the
// runtime ready when fn reports a change.
func (r *Default[S]) Modify(cs *irq.CriticalSection, fn func(s S) bool) {
	_ = cs
	if fn(r.state) {
		r.ready.Raise()
	}
}

// State returns the state for foreground reads.
func (r *Default[S]) State() S {
	return r.state
}

func (r *Default[S]) IsReady() bool {
	return r.ready.IsSet()
}

func (r *Default[S]) Snapshot(cs *irq.CriticalSection) {
	r.ready.Clear()
	r.state.Snapshot(cs)
}

func (r *Default[S]) Wake() {
	r.ready.Raise()
}

func (r *Default[S]) Idle() {
	r.cpu.Idle()
}

func (r *Default[S]) Shutdown() {
	r.cpu.PowerDown()
}
