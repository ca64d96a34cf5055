package app

import (
	"ember/hal"
	"ember/kernel"
	"ember/ksync"
	"ember/queue"
	"ember/ticks"
	"ember/twi"
)

// logf queues a line for the console. Lines that do not fit are counted
// and dropped; the beat must not stall on a slow console.
func (s *System) logf(format string, args ...any) {
	if _, r := s.log.TryEnqueue(Linef(format, args...)); r != queue.OK {
		s.dropped.Add(1)
	}
}

// blinker drives two LEDs from the beat: both off on the first phase of a
// bar, alternating on the other three.
type blinker struct {
	s      *System
	l      *Listener
	next   *NextPhase
	leds   []hal.LED
	status bool
	beats  uint32
}

func (b *blinker) Poll(cx *kernel.Context) bool {
	for {
		if b.next == nil {
			b.next = b.l.Next()
		}
		phase, ok := b.next.Poll(cx)
		if !ok {
			return false
		}
		b.next = nil
		b.show(phase)

		b.beats++
		if g, err := b.s.beats.TryLock(); err == nil {
			*g.Get() = b.beats
			g.Unlock()
		}
		if phase == 0 {
			b.s.logf("beat: bar=%d", b.beats/Phases)
		}
		if limit := b.s.cfg.Beats; limit > 0 && b.beats >= limit {
			b.set(false, false)
			b.s.stopped = true
			b.s.console.Done()
			return true
		}
	}
}

func (b *blinker) show(phase uint8) {
	switch {
	case phase == 0:
		b.set(false, false)
	case b.status:
		b.set(false, true)
		b.status = false
	default:
		b.set(true, false)
		b.status = true
	}
}

func (b *blinker) set(on ...bool) {
	for i, led := range b.leds {
		if i >= len(on) {
			break
		}
		if on[i] {
			led.High()
		} else {
			led.Low()
		}
	}
}

// heartbeat logs the clock and the beat count every period ticks until the
// blinker stops.
type heartbeat struct {
	s    *System
	iv   *ticks.Interval[uint32]
	wait *ticks.Delay[uint32]
	lock *ksync.Lock[uint32]
	send *ksync.Send[Line]
}

func (h *heartbeat) Poll(cx *kernel.Context) bool {
	for {
		switch {
		case h.send != nil:
			if _, ok := h.send.Poll(cx); !ok {
				return false
			}
			h.send = nil
		case h.lock != nil:
			g, ok := h.lock.Poll(cx)
			if !ok {
				return false
			}
			beats := *g.Get()
			g.Unlock()
			h.lock = nil
			h.send = h.s.log.Enqueue(Linef("heartbeat: tick=%d beats=%d", h.s.state.Clock.Now(), beats))
		default:
			if h.s.stopped {
				h.s.console.Done()
				return true
			}
			if h.wait == nil {
				h.wait = h.iv.Next()
			}
			if _, ok := h.wait.Poll(cx); !ok {
				return false
			}
			h.wait = nil
			h.lock = h.s.beats.Lock()
		}
	}
}

// probe switches the panel on over the two-wire bus and reads back its
// status byte.
type probe struct {
	s      *System
	addr   uint16
	step   int
	xfer   *twi.Transfer
	status [1]byte
}

var panelOn = []byte{0x00, 0xAF}
var panelStatus = []byte{0x00}

func (p *probe) Poll(cx *kernel.Context) bool {
	for {
		if p.xfer == nil {
			switch p.step {
			case 0:
				p.xfer = p.s.bus.Write(p.addr, panelOn)
			case 1:
				p.xfer = p.s.bus.WriteRead(p.addr, panelStatus, p.status[:])
			default:
				p.s.console.Done()
				return true
			}
		}
		err, ok := p.xfer.Poll(cx)
		if !ok {
			return false
		}
		p.xfer = nil
		if err != nil {
			p.s.logf("twi: probe addr=0x%02X step=%d err=%v", p.addr, p.step, err)
			p.step = 2
			continue
		}
		if p.step == 1 {
			p.s.logf("twi: panel addr=0x%02X status=0x%02X", p.addr, p.status[0])
		}
		p.step++
	}
}

// Tally is the value the counter workers share.
type Tally struct {
	Count uint32
	Last  kernel.TaskID
}

// worker bumps the shared tally rounds times, yielding while it holds the
// lock so the other worker has to queue behind it.
type worker struct {
	s      *System
	rounds int
	lock   *ksync.TaskLock[Tally]
	guard  ksync.TaskGuard[Tally]
	held   bool
	yield  *kernel.YieldFuture
}

func (w *worker) Poll(cx *kernel.Context) bool {
	for {
		if w.held {
			if _, ok := w.yield.Poll(cx); !ok {
				return false
			}
			t := w.guard.Get()
			t.Count++
			t.Last = cx.TaskID()
			w.guard.Unlock()
			w.held = false
			w.rounds--
			continue
		}
		if w.rounds <= 0 {
			w.s.workerDone(cx)
			return true
		}
		if w.lock == nil {
			w.lock = w.s.tally.Lock()
		}
		g, ok := w.lock.Poll(cx)
		if !ok {
			return false
		}
		w.lock = nil
		w.guard = g
		w.held = true
		w.yield = kernel.Yield()
	}
}

func (s *System) workerDone(cx *kernel.Context) {
	s.workers--
	if s.workers > 0 {
		return
	}
	g, err := s.tally.TryLock(cx.TaskID())
	if err != nil {
		s.logf("tally: busy at exit")
	} else {
		t := *g.Get()
		g.Unlock()
		s.logf("tally: count=%d last=%d", t.Count, t.Last)
	}
	s.console.Done()
}
