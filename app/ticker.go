package app

import (
	"ember/irq"
	"ember/kernel"
	"ember/slab"
)

const (
	// Phases is the number of phases in one bar.
	Phases = 4
	// MaxListeners is how many tasks can follow one Ticker.
	MaxListeners = 4
)

type phaseSlot struct {
	phase uint8
	set   bool
}

// ListenerSlots is the slab storage behind a Ticker.
type ListenerSlots struct {
	slots [MaxListeners]phaseSlot
	n     int
}

// Ticker turns the timer into a 4-phase beat. Every div timer ticks it
// toggles a half step; every second half step moves to the next phase.
//
// Tick runs in the timer vector. Snapshot hands the new phase to every
// listener, or clears their slots when the phase did not change, so a
// listener only sees a phase during the poll right after it changed.
type Ticker struct {
	div     uint16
	count   uint16
	half    bool
	changed bool
	current uint8
	slots   slab.Box[ListenerSlots]
}

// NewTicker places the listener table in mem. div of 0 is treated as 1.
func NewTicker(mem slab.Slab[ListenerSlots], div uint16) *Ticker {
	if div == 0 {
		div = 1
	}
	return &Ticker{div: div, slots: mem.Get(ListenerSlots{})}
}

// Subscribe registers a new listener. It fails once MaxListeners have
// subscribed.
func (t *Ticker) Subscribe() (*Listener, bool) {
	ls := t.slots.Get()
	if ls.n == len(ls.slots) {
		return nil, false
	}
	l := &Listener{slot: &ls.slots[ls.n]}
	ls.n++
	return l, true
}

// Tick advances the beat and reports whether a phase change is pending.
func (t *Ticker) Tick(cs *irq.CriticalSection) bool {
	_ = cs
	t.count++
	if t.count < t.div {
		return t.changed
	}
	t.count = 0
	if t.half {
		t.half = false
		t.changed = true
		t.current = (t.current + 1) % Phases
	} else {
		t.half = true
	}
	return t.changed
}

func (t *Ticker) Snapshot(cs *irq.CriticalSection) {
	_ = cs
	ls := t.slots.Get()
	for i := range ls.slots[:ls.n] {
		ls.slots[i] = phaseSlot{phase: t.current, set: t.changed}
	}
	t.changed = false
}

// Listener follows a Ticker.
type Listener struct {
	slot *phaseSlot
}

// Next returns a future resolving to the next phase.
func (l *Listener) Next() *NextPhase {
	return &NextPhase{l: l}
}

// NextPhase is returned by Listener.Next.
type NextPhase struct {
	l *Listener
}

func (n *NextPhase) Poll(*kernel.Context) (uint8, bool) {
	s := n.l.slot
	if !s.set {
		return 0, false
	}
	s.set = false
	return s.phase, true
}
