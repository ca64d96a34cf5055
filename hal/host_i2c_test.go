//go:build !tinygo

package hal

import (
	"errors"
	"testing"

	"ember/twi"
)

func TestHostI2CPanel(t *testing.T) {
	b := NewHostI2C()
	dev, ok := b.Device(PanelAddr)
	if !ok {
		t.Fatalf("Device(0x%02X) missing", PanelAddr)
	}
	p := dev.(*Panel)

	status := make([]byte, 1)
	if err := b.Tx(PanelAddr, []byte{0x00}, status); err != nil {
		t.Fatalf("Tx(status) = %v, want nil", err)
	}
	if status[0] != panelStatusOff {
		t.Fatalf("status = 0x%02X, want 0x%02X", status[0], panelStatusOff)
	}

	if err := b.Tx(PanelAddr, []byte{0x00, PanelOn}, nil); err != nil {
		t.Fatalf("Tx(on) = %v, want nil", err)
	}
	if !p.On() {
		t.Fatalf("On() = false, want true")
	}
	if err := b.WriteRegister(PanelAddr, panelData, []byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteRegister() = %v, want nil", err)
	}
	if got := p.DataBytes(); got != 3 {
		t.Fatalf("DataBytes() = %d, want 3", got)
	}
	if err := b.ReadRegister(PanelAddr, 0x00, status); err != nil || status[0] != 0 {
		t.Fatalf("ReadRegister() = 0x%02X, %v, want 0x00, nil", status[0], err)
	}
}

func TestHostI2CErrors(t *testing.T) {
	b := NewHostI2C()

	if err := b.Tx(0x10, []byte{0}, nil); !errors.Is(err, twi.ErrAddressNack) {
		t.Fatalf("Tx(empty addr) = %v, want %v", err, twi.ErrAddressNack)
	}
	if err := b.Tx(PanelAddr, []byte{0x99}, nil); !errors.Is(err, twi.ErrDataNack) {
		t.Fatalf("Tx(bad control) = %v, want %v", err, twi.ErrDataNack)
	}

	b.InjectFault(twi.ErrArbitrationLost)
	if err := b.Tx(PanelAddr, []byte{0x00, PanelOn}, nil); !errors.Is(err, twi.ErrArbitrationLost) {
		t.Fatalf("Tx(fault) = %v, want %v", err, twi.ErrArbitrationLost)
	}
	if err := b.Tx(PanelAddr, []byte{0x00, PanelOn}, nil); err != nil {
		t.Fatalf("Tx(after fault) = %v, want nil", err)
	}

	b.Mount(PanelAddr, nil)
	if err := b.Tx(PanelAddr, []byte{0x00}, nil); !errors.Is(err, twi.ErrAddressNack) {
		t.Fatalf("Tx(unmounted) = %v, want %v", err, twi.ErrAddressNack)
	}
	if got := b.Transfers(); got != 5 {
		t.Fatalf("Transfers() = %d, want 5", got)
	}
}
