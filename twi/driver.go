// Package twi drives a two-wire (I2C) bus from interrupt context and
// exposes transfers to tasks as futures.
//
// The interrupt side is Driver: the bus vector calls Driver.Run, which
// advances the in-flight request by one phase per interrupt. The task side
// is Bus: transfers take the bus with a one-permit semaphore, hand their
// buffers to the driver and wait for the request to come back.
package twi

import (
	"ember/irq"

	"tinygo.org/x/drivers"
)

// Line raises the bus interrupt. Pend is called inside a critical section
// and must not block.
type Line interface {
	Pend()
}

type phase uint8

const (
	phaseIdle phase = iota
	phaseStart
	phaseAddress
	phaseTransfer
	phaseStop
	phaseDone
)

func (p phase) String() string {
	switch p {
	case phaseIdle:
		return "idle"
	case phaseStart:
		return "start"
	case phaseAddress:
		return "address"
	case phaseTransfer:
		return "transfer"
	case phaseStop:
		return "stop"
	case phaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// request is the transfer handed to the driver. The buffers belong to the
// driver from submit until the request reaches phaseDone.
type request struct {
	phase phase
	addr  uint16
	w     []byte
	r     []byte
	err   error
}

// Driver is the interrupt half of the bus.
type Driver struct {
	bus  drivers.I2C
	line Line
	req  irq.Cell[request]

	transfers uint32
	failures  uint32
}

// NewDriver returns a driver for bus. line may be nil when the board calls
// Run from a periodic vector instead.
func NewDriver(bus drivers.I2C, line Line) *Driver {
	return &Driver{bus: bus, line: line}
}

// IsReady reports whether a request is in flight and Run has work to do.
func (d *Driver) IsReady(cs *irq.CriticalSection) bool {
	p := d.req.Borrow(cs).phase
	return p != phaseIdle && p != phaseDone
}

// Run advances the in-flight request by one phase and reports whether it
// completed. Calling it with nothing in flight is a no-op.
func (d *Driver) Run(cs *irq.CriticalSection) bool {
	r := d.req.Borrow(cs)
	switch r.phase {
	case phaseStart:
		r.phase = phaseAddress
	case phaseAddress:
		if r.addr > 0x7F {
			r.err = ErrInvalidAddress
			r.phase = phaseStop
		} else {
			r.phase = phaseTransfer
		}
	case phaseTransfer:
		r.err = classify(d.bus.Tx(r.addr, r.w, r.r))
		r.phase = phaseStop
	case phaseStop:
		r.phase = phaseDone
		d.transfers++
		if r.err != nil {
			d.failures++
		}
		return true
	default:
		return false
	}
	d.pend()
	return false
}

// Counters returns the number of completed and failed requests.
func (d *Driver) Counters(cs *irq.CriticalSection) (transfers, failures uint32) {
	_ = cs
	return d.transfers, d.failures
}

func (d *Driver) pend() {
	if d.line != nil {
		d.line.Pend()
	}
}

func (d *Driver) submit(addr uint16, w, r []byte) {
	irq.Free(func(cs *irq.CriticalSection) {
		req := d.req.Borrow(cs)
		if req.phase != phaseIdle {
			panic("twi: request submitted while the bus is busy")
		}
		*req = request{phase: phaseStart, addr: addr, w: w, r: r}
		d.pend()
	})
}

// collect returns the result of a finished request and frees the slot.
func (d *Driver) collect() (err error, done bool) {
	irq.Free(func(cs *irq.CriticalSection) {
		req := d.req.Borrow(cs)
		if req.phase != phaseDone {
			return
		}
		err, done = req.err, true
		*req = request{}
	})
	return err, done
}

// abort drops the in-flight request. The bus is released between phases,
// so a request aborted mid-way never leaves a transaction open.
func (d *Driver) abort() {
	irq.Free(func(cs *irq.CriticalSection) {
		*d.req.Borrow(cs) = request{}
	})
}
