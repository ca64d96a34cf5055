// Package ticks is the timebase: a counter advanced by a timer interrupt
// and futures that wait for it.
package ticks

import (
	"ember/irq"
	"ember/kernel"
)

// Unsigned is the set of counter widths. Narrow counters wrap sooner but
// are cheaper to copy on 8-bit cores.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint
}

// Counter counts timer interrupts.
//
// Inc runs in the timer vector. Tasks read the value captured by the last
// Snapshot, so every task polled in one executor iteration agrees on the
// current tick.
type Counter[I Unsigned] struct {
	counter  I
	snapshot I
}

var _ kernel.State = (*Counter[uint8])(nil)

// Inc advances the counter. It always reports true so it can be returned
// straight from a runtime Modify hook.
func (c *Counter[I]) Inc(cs *irq.CriticalSection) bool {
	_ = cs
	c.counter++
	return true
}

// Snapshot copies the live counter for foreground reads.
func (c *Counter[I]) Snapshot(cs *irq.CriticalSection) {
	_ = cs
	c.snapshot = c.counter
}

// Now returns the tick count at the last snapshot.
func (c *Counter[I]) Now() I {
	return c.snapshot
}

// Real reads the live counter.
func (c *Counter[I]) Real() I {
	return irq.With(func(*irq.CriticalSection) I { return c.counter })
}

// Delay returns a future that is ready once n ticks have passed since now.
func (c *Counter[I]) Delay(n I) *Delay[I] {
	return &Delay[I]{c: c, start: c.Now(), n: n}
}

// Interval returns a ticker firing every period ticks, starting now.
func (c *Counter[I]) Interval(period I) *Interval[I] {
	return &Interval[I]{c: c, start: c.Now(), period: period}
}

// Elapsed returns the ticks between start and now, tolerating one wrap of
// the counter.
func Elapsed[I Unsigned](start, now I) I {
	return now - start
}

// Delay waits for a number of ticks.
type Delay[I Unsigned] struct {
	c     *Counter[I]
	start I
	n     I
}

// Reset restarts the delay from the current tick.
func (d *Delay[I]) Reset() {
	d.start = d.c.Now()
}

// Remaining returns the ticks left before the delay expires.
func (d *Delay[I]) Remaining() I {
	e := Elapsed(d.start, d.c.Now())
	if e >= d.n {
		return 0
	}
	return d.n - e
}

func (d *Delay[I]) Poll(*kernel.Context) (struct{}, bool) {
	return struct{}{}, Elapsed(d.start, d.c.Now()) >= d.n
}

// Interval produces delays that expire on a fixed grid. A late poll does
// not shift later deadlines.
type Interval[I Unsigned] struct {
	c      *Counter[I]
	start  I
	period I
}

// Next returns the delay until the next deadline.
func (i *Interval[I]) Next() *Delay[I] {
	d := &Delay[I]{c: i.c, start: i.start, n: i.period}
	i.start += i.period
	return d
}
