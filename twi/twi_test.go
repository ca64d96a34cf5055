package twi

import (
	"bytes"
	"errors"
	"testing"

	"ember/irq"
	"ember/kernel"
	"ember/ksync"
)

var errWire = errors.New("wire glitch")

type fakeI2C struct {
	devices map[uint16][]byte // register file per address
	fail    error
	txs     int
	lastW   []byte
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	f.txs++
	if f.fail != nil {
		return f.fail
	}
	mem, ok := f.devices[addr]
	if !ok {
		return ErrAddressNack
	}
	f.lastW = append(f.lastW[:0], w...)
	copy(r, mem)
	return nil
}

func (f *fakeI2C) ReadRegister(addr uint8, reg uint8, buf []byte) error {
	return f.Tx(uint16(addr), []byte{reg}, buf)
}

func (f *fakeI2C) WriteRegister(addr uint8, reg uint8, buf []byte) error {
	return f.Tx(uint16(addr), append([]byte{reg}, buf...), nil)
}

type countingLine struct{ n int }

func (l *countingLine) Pend() { l.n++ }

type nopWaker struct{}

func (nopWaker) Wake() {}

func newTestBus() (*Bus, *Driver, *fakeI2C, *countingLine) {
	dev := &fakeI2C{devices: map[uint16][]byte{0x3C: {0xA5, 0x5A}}}
	line := &countingLine{}
	drv := NewDriver(dev, line)
	var waiters [2]ksync.Waiter
	return NewBus(drv, waiters[:]), drv, dev, line
}

// service runs the bus vector until the in-flight request completes.
func service(t *testing.T, d *Driver) {
	t.Helper()
	for i := 0; i < 8; i++ {
		done := irq.With(func(cs *irq.CriticalSection) bool { return d.Run(cs) })
		if done {
			return
		}
	}
	t.Fatal("request did not complete in 8 interrupts")
}

func TestTransferWrite(t *testing.T) {
	bus, drv, dev, line := newTestBus()
	cx := kernel.NewContext(nopWaker{})

	tr := bus.Write(0x3C, []byte{0x00, 0xAF})
	if _, ok := tr.Poll(cx); ok {
		t.Fatal("transfer resolved before the bus ran")
	}
	if line.n != 1 {
		t.Fatalf("pends after submit = %d, want 1", line.n)
	}
	if !irq.With(drv.IsReady) {
		t.Fatal("IsReady() = false with a request in flight")
	}

	service(t, drv)
	err, ok := tr.Poll(cx)
	if !ok || err != nil {
		t.Fatalf("Poll() = %v, %v, want nil, true", err, ok)
	}
	if !bytes.Equal(dev.lastW, []byte{0x00, 0xAF}) {
		t.Fatalf("device saw % x", dev.lastW)
	}
	if irq.With(drv.IsReady) {
		t.Fatal("IsReady() = true after completion")
	}
	var n, fails uint32
	irq.Free(func(cs *irq.CriticalSection) { n, fails = drv.Counters(cs) })
	if n != 1 || fails != 0 {
		t.Fatalf("Counters() = %d, %d", n, fails)
	}

	// Polling a finished transfer keeps returning its result.
	if err, ok := tr.Poll(cx); !ok || err != nil {
		t.Fatalf("second Poll() = %v, %v", err, ok)
	}
}

func TestTransferWriteRead(t *testing.T) {
	bus, drv, _, _ := newTestBus()
	cx := kernel.NewContext(nopWaker{})

	buf := make([]byte, 2)
	tr := bus.WriteRead(0x3C, []byte{0x00}, buf)
	tr.Poll(cx)
	service(t, drv)
	if err, ok := tr.Poll(cx); !ok || err != nil {
		t.Fatalf("Poll() = %v, %v", err, ok)
	}
	if !bytes.Equal(buf, []byte{0xA5, 0x5A}) {
		t.Fatalf("read % x, want a5 5a", buf)
	}
}

func TestTransferErrors(t *testing.T) {
	tests := []struct {
		name string
		addr uint16
		fail error
		want error
		txs  int
	}{
		{name: "address nack", addr: 0x50, want: ErrAddressNack, txs: 1},
		{name: "data nack", addr: 0x3C, fail: ErrDataNack, want: ErrDataNack, txs: 1},
		{name: "arbitration", addr: 0x3C, fail: ErrArbitrationLost, want: ErrArbitrationLost, txs: 1},
		{name: "wrapped", addr: 0x3C, fail: errWire, want: ErrBus, txs: 1},
		{name: "invalid address", addr: 0x80, want: ErrInvalidAddress, txs: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus, drv, dev, _ := newTestBus()
			dev.fail = tt.fail
			cx := kernel.NewContext(nopWaker{})

			tr := bus.Read(tt.addr, make([]byte, 1))
			tr.Poll(cx)
			service(t, drv)
			err, ok := tr.Poll(cx)
			if !ok {
				t.Fatal("transfer not resolved")
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if tt.fail == errWire && !errors.Is(err, errWire) {
				t.Fatalf("err = %v does not wrap the bus error", err)
			}
			if dev.txs != tt.txs {
				t.Fatalf("Tx calls = %d, want %d", dev.txs, tt.txs)
			}
		})
	}
}

func TestBusSerializesTransfers(t *testing.T) {
	bus, drv, dev, _ := newTestBus()
	cx := kernel.NewContext(nopWaker{})

	first := bus.Write(0x3C, []byte{1})
	second := bus.Write(0x3C, []byte{2})
	first.Poll(cx)
	second.Poll(cx)

	service(t, drv)
	if !bytes.Equal(dev.lastW, []byte{1}) {
		t.Fatalf("first transfer wrote % x", dev.lastW)
	}
	// second is still queued for the bus.
	if _, ok := second.Poll(cx); ok {
		t.Fatal("second transfer resolved before the first released the bus")
	}
	if irq.With(drv.IsReady) {
		t.Fatal("second transfer submitted while first was uncollected")
	}

	if err, ok := first.Poll(cx); !ok || err != nil {
		t.Fatalf("first Poll() = %v, %v", err, ok)
	}
	second.Poll(cx)
	service(t, drv)
	if err, ok := second.Poll(cx); !ok || err != nil {
		t.Fatalf("second Poll() = %v, %v", err, ok)
	}
	if !bytes.Equal(dev.lastW, []byte{2}) {
		t.Fatalf("second transfer wrote % x", dev.lastW)
	}
}

func TestTransferCancel(t *testing.T) {
	bus, drv, dev, _ := newTestBus()
	cx := kernel.NewContext(nopWaker{})

	first := bus.Write(0x3C, []byte{1})
	queued := bus.Write(0x3C, []byte{2})
	first.Poll(cx)
	queued.Poll(cx)

	// Cancel a queued transfer, then the one in flight.
	queued.Cancel()
	first.Cancel()
	if irq.With(drv.IsReady) {
		t.Fatal("request still in flight after Cancel")
	}
	if err, ok := first.Poll(cx); !ok || !errors.Is(err, ErrCancelled) {
		t.Fatalf("cancelled Poll() = %v, %v", err, ok)
	}
	if irq.With(drv.Run) {
		t.Fatal("Run() on an idle driver reported completion")
	}

	next := bus.Write(0x3C, []byte{3})
	next.Poll(cx)
	service(t, drv)
	if err, ok := next.Poll(cx); !ok || err != nil {
		t.Fatalf("Poll() after cancel = %v, %v", err, ok)
	}
	if dev.txs != 1 || !bytes.Equal(dev.lastW, []byte{3}) {
		t.Fatalf("txs=%d last=% x", dev.txs, dev.lastW)
	}
}
