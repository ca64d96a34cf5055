// Package app is the firmware: a beat-driven blinker, a panel probe over
// the two-wire bus, a heartbeat and a pair of counter workers, all joined
// into one root task and run by the kernel executor.
package app

import (
	"fmt"
	"sync/atomic"

	"ember/hal"
	"ember/irq"
	"ember/kernel"
	"ember/ksync"
	"ember/twi"
)

// Config tunes the firmware. Zero fields take the Board defaults.
type Config struct {
	TimerHz     int    `toml:"timer_hz"`
	BeatDivider uint16 `toml:"beat_divider"`
	PanelAddr   uint16 `toml:"panel_addr"`
	// Beats stops the firmware after this many phase changes (0 = run
	// forever).
	Beats          uint32 `toml:"beats"`
	HeartbeatTicks uint32 `toml:"heartbeat_ticks"`
	CounterRounds  int    `toml:"counter_rounds"`
}

// DefaultConfig returns the configuration generated from board.toml.
func DefaultConfig() Config {
	return Config{
		TimerHz:        Board.TimerHz,
		BeatDivider:    Board.BeatDivider,
		PanelAddr:      Board.PanelAddr,
		HeartbeatTicks: uint32(Board.TimerHz),
		CounterRounds:  8,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TimerHz <= 0 {
		c.TimerHz = d.TimerHz
	}
	if c.BeatDivider == 0 {
		c.BeatDivider = d.BeatDivider
	}
	if c.PanelAddr == 0 {
		c.PanelAddr = d.PanelAddr
	}
	if c.HeartbeatTicks == 0 {
		c.HeartbeatTicks = uint32(c.TimerHz)
	}
	if c.CounterRounds <= 0 {
		c.CounterRounds = d.CounterRounds
	}
	return c
}

const (
	logDepth   = 32
	numWorkers = 2
	// blinker, heartbeat, probe and the worker pair.
	numProducers = 4
)

// System is the running firmware.
type System struct {
	h   hal.HAL
	cfg Config

	rt    *Runtime
	state State

	logBuf  [logDepth]Line
	log     *ksync.Channel[Line]
	console *Console

	bus        *twi.Bus
	busWaiters [4]ksync.Waiter

	beats       *ksync.Mutex[uint32]
	beatWaiters [2]ksync.Waiter

	tally        *ksync.TaskMutex[Tally]
	tallyWaiters [numWorkers]kernel.TaskID
	workers      int

	stopped bool

	exec    *kernel.Executor
	dropped atomic.Uint32
}

// New builds the firmware on h, attaches its vectors and starts the timer.
// The root task runs once Run is called.
func New(h hal.HAL, cfg Config) (*System, error) {
	cfg = cfg.withDefaults()
	s := &System{h: h, cfg: cfg, workers: numWorkers}

	ic := h.Interrupts()
	if ic == nil {
		return nil, fmt.Errorf("app: board has no interrupt controller")
	}

	mem, ok := tickerSlots.Take()
	if !ok {
		return nil, fmt.Errorf("app: ticker storage already taken")
	}
	s.state.Ticker = NewTicker(mem, cfg.BeatDivider)
	drv := twi.NewDriver(h.I2C(), ic.Line(hal.VectorTWI))
	s.state.TWI = drv
	s.rt = kernel.NewDefault(&s.state, h.CPU())

	s.log = ksync.NewChannel(s.logBuf[:])
	s.console = NewConsole(s.log, h.Logger(), h.Display(), numProducers)
	s.bus = twi.NewBus(drv, s.busWaiters[:])
	s.beats = ksync.NewMutex(uint32(0), s.beatWaiters[:])
	s.tally = ksync.NewTaskMutex(Tally{}, s.tallyWaiters[:])

	l, ok := s.state.Ticker.Subscribe()
	if !ok {
		return nil, fmt.Errorf("app: ticker has no free listener")
	}
	root := kernel.Join(
		s.console,
		&blinker{s: s, l: l, leds: h.LEDs()},
		&heartbeat{s: s, iv: s.state.Clock.Interval(cfg.HeartbeatTicks)},
		&probe{s: s, addr: cfg.PanelAddr},
		&worker{s: s, rounds: cfg.CounterRounds},
		&worker{s: s, rounds: cfg.CounterRounds},
	)

	installPanicHandler(h)
	s.exec = kernel.NewExecutor(s.rt, kernel.Acquire(root))

	if err := s.attachVectors(ic); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	if err := ic.StartTimer(cfg.TimerHz); err != nil {
		return nil, fmt.Errorf("app: start timer at %d Hz: %w", cfg.TimerHz, err)
	}
	s.logf("ember: board=%s timer=%dHz", Board.Name, cfg.TimerHz)
	return s, nil
}

// Run drives the firmware. It never returns: once the root task finishes
// the core is powered down.
func (s *System) Run() {
	s.exec.Run()
}

// Run builds the firmware on h and runs it (TinyGo entrypoint).
func Run(h hal.HAL, cfg Config) {
	s, err := New(h, cfg)
	if err != nil {
		if l := h.Logger(); l != nil {
			l.WriteLineString(err.Error())
		}
		h.CPU().PowerDown()
		return
	}
	s.Run()
}

// Config returns the effective configuration.
func (s *System) Config() Config { return s.cfg }

// Stats is a point-in-time view of the firmware counters.
type Stats struct {
	Exec       kernel.Stats
	Interrupts [hal.NumVectors]uint64
	Transfers  uint32
	Failures   uint32
	Dropped    uint32
	Finished   bool
	Panicked   bool
}

// Stats returns the current counters. Safe to call from any goroutine.
func (s *System) Stats() Stats {
	st := Stats{
		Exec:     s.exec.Stats(),
		Dropped:  s.dropped.Load(),
		Finished: s.exec.Finished(),
		Panicked: s.exec.Panicked(),
	}
	ic := s.h.Interrupts()
	for v := hal.Vector(0); v < hal.NumVectors; v++ {
		st.Interrupts[v] = ic.Count(v)
	}
	irq.Free(func(cs *irq.CriticalSection) {
		st.Transfers, st.Failures = s.state.TWI.Counters(cs)
	})
	return st
}
