package app

import (
	"ember/irq"
	"ember/kernel"
	"ember/ticks"
	"ember/twi"
)

// State is everything the interrupt vectors write. The executor snapshots
// it before every poll of the firmware task.
type State struct {
	Ticker *Ticker
	Clock  ticks.Counter[uint32]
	TWI    *twi.Driver
}

var _ kernel.State = (*State)(nil)

func (s *State) Snapshot(cs *irq.CriticalSection) {
	s.Ticker.Snapshot(cs)
	s.Clock.Snapshot(cs)
}

// Runtime is the runtime the firmware runs on.
type Runtime = kernel.Default[*State]

// onTimer is the timer vector.
func (s *System) onTimer(cs *irq.CriticalSection) {
	s.rt.Modify(cs, func(st *State) bool {
		beat := st.Ticker.Tick(cs)
		tick := st.Clock.Inc(cs)
		return tick || beat
	})
}

// onTWI is the two-wire vector.
func (s *System) onTWI(cs *irq.CriticalSection) {
	s.rt.Modify(cs, func(st *State) bool {
		return st.TWI.Run(cs)
	})
}
