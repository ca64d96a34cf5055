package twi

import (
	"ember/kernel"
	"ember/ksync"
)

// Bus is the task half of the bus. Transfers queue on a one-permit
// semaphore, so at most one request is ever handed to the driver.
type Bus struct {
	drv *Driver
	sem *ksync.Semaphore
}

// NewBus returns the task side of drv. At most len(waiters) transfers can
// queue behind the one in flight.
func NewBus(drv *Driver, waiters []ksync.Waiter) *Bus {
	return &Bus{drv: drv, sem: ksync.NewSemaphore(1, waiters)}
}

// Write sends w to addr.
func (b *Bus) Write(addr uint16, w []byte) *Transfer {
	return b.transfer(addr, w, nil)
}

// Read fills r from addr.
func (b *Bus) Read(addr uint16, r []byte) *Transfer {
	return b.transfer(addr, nil, r)
}

// WriteRead sends w to addr and then fills r with a repeated start.
func (b *Bus) WriteRead(addr uint16, w, r []byte) *Transfer {
	return b.transfer(addr, w, r)
}

func (b *Bus) transfer(addr uint16, w, r []byte) *Transfer {
	return &Transfer{
		bus:   b,
		state: transferAcquire,
		acq:   b.sem.Acquire(),
		addr:  addr,
		w:     w,
		r:     r,
	}
}

type transferState uint8

const (
	transferAcquire transferState = iota
	transferWait
	transferDone
)

// Transfer is a pending bus transaction. It resolves to nil or one of the
// package errors.
type Transfer struct {
	bus   *Bus
	state transferState

	// transferAcquire
	acq  *ksync.Acquire
	addr uint16
	w    []byte
	r    []byte

	// transferWait
	permit ksync.Permit

	// transferDone
	err error
}

func (t *Transfer) Poll(cx *kernel.Context) (error, bool) {
	switch t.state {
	case transferAcquire:
		p, ok := t.acq.Poll(cx)
		if !ok {
			return nil, false
		}
		t.permit = p
		t.acq = nil
		t.bus.drv.submit(t.addr, t.w, t.r)
		t.w, t.r = nil, nil
		t.state = transferWait
		return nil, false
	case transferWait:
		err, done := t.bus.drv.collect()
		if !done {
			return nil, false
		}
		t.permit.Release()
		t.err = err
		t.state = transferDone
		return err, true
	default:
		return t.err, true
	}
}

// Cancel abandons the transfer and frees the bus for the next one.
func (t *Transfer) Cancel() {
	switch t.state {
	case transferAcquire:
		t.acq.Cancel()
	case transferWait:
		t.bus.drv.abort()
		t.permit.Release()
	default:
		return
	}
	t.err = ErrCancelled
	t.state = transferDone
}
