//go:build !tinygo

package hal

import (
	"sync"

	"ember/twi"
)

// PanelAddr is where the simulated board mounts its display controller.
const PanelAddr = 0x3C

// I2CDevice is a peripheral on the simulated bus.
type I2CDevice interface {
	// Write receives the bytes of a write phase.
	Write(w []byte) error
	// Read fills r during a read phase.
	Read(r []byte) error
}

// HostI2C is a simulated two-wire bus. Transfers to an empty address are
// not acknowledged.
type HostI2C struct {
	mu      sync.Mutex
	devices map[uint16]I2CDevice
	faults  []error
	txs     uint64
}

// NewHostI2C returns a bus with a Panel mounted at PanelAddr.
func NewHostI2C() *HostI2C {
	b := &HostI2C{devices: make(map[uint16]I2CDevice)}
	b.devices[PanelAddr] = &Panel{}
	return b
}

// Mount attaches dev at addr, replacing any device already there. A nil
// dev unmounts the address.
func (b *HostI2C) Mount(addr uint16, dev I2CDevice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if dev == nil {
		delete(b.devices, addr)
		return
	}
	b.devices[addr] = dev
}

// Device returns the device at addr.
func (b *HostI2C) Device(addr uint16) (I2CDevice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.devices[addr]
	return d, ok
}

// InjectFault makes the next transfer fail with err.
func (b *HostI2C) InjectFault(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults = append(b.faults, err)
}

// Transfers returns how many transfers the bus has carried.
func (b *HostI2C) Transfers() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.txs
}

func (b *HostI2C) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.txs++
	if len(b.faults) > 0 {
		err := b.faults[0]
		b.faults = b.faults[1:]
		return err
	}
	dev, ok := b.devices[addr]
	if !ok {
		return twi.ErrAddressNack
	}
	if len(w) > 0 {
		if err := dev.Write(w); err != nil {
			return err
		}
	}
	if len(r) > 0 {
		return dev.Read(r)
	}
	return nil
}

func (b *HostI2C) ReadRegister(addr uint8, reg uint8, buf []byte) error {
	return b.Tx(uint16(addr), []byte{reg}, buf)
}

func (b *HostI2C) WriteRegister(addr uint8, reg uint8, buf []byte) error {
	w := make([]byte, 0, len(buf)+1)
	w = append(w, reg)
	w = append(w, buf...)
	return b.Tx(uint16(addr), w, nil)
}

// Panel models an SSD1306-class display controller: a control byte selects
// a command (0x00) or data (0x40) stream, 0xAF/0xAE switch the panel on and
// off, and reads return the status byte.
type Panel struct {
	mu   sync.Mutex
	on   bool
	data int
}

const (
	panelCommand = 0x00
	panelData    = 0x40

	PanelOn  = 0xAF
	PanelOff = 0xAE

	panelStatusOff = 0x40
)

func (p *Panel) Write(w []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch w[0] {
	case panelCommand:
		for _, c := range w[1:] {
			switch c {
			case PanelOn:
				p.on = true
			case PanelOff:
				p.on = false
			}
		}
	case panelData:
		p.data += len(w) - 1
	default:
		return twi.ErrDataNack
	}
	return nil
}

func (p *Panel) Read(r []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	status := byte(0)
	if !p.on {
		status = panelStatusOff
	}
	for i := range r {
		r[i] = status
	}
	return nil
}

// On reports whether the panel has been switched on.
func (p *Panel) On() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.on
}

// DataBytes returns how many display RAM bytes the panel has received.
func (p *Panel) DataBytes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data
}
