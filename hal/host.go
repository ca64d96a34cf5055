//go:build !tinygo

package hal

import (
	"fmt"
	"io"
	"os"
	"sync"

	"tinygo.org/x/drivers"
)

type hostHAL struct {
	logger *hostLogger
	leds   []*hostLED
	fb     *hostFramebuffer
	i2c    *HostI2C
	intc   *softIRQ
	cpu    *hostCPU
}

// HostOptions tweaks the simulated board.
type HostOptions struct {
	// Log receives log lines. Defaults to os.Stdout.
	Log io.Writer
	// QuietLEDs stops LED edges from being logged.
	QuietLEDs bool
	Width     int
	Height    int
}

// New returns a host HAL implementation.
func New() HAL {
	return NewHost(HostOptions{})
}

// NewHost returns a host HAL configured by opts.
func NewHost(opts HostOptions) *HostBoard {
	if opts.Log == nil {
		opts.Log = os.Stdout
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 320, 240
	}
	logger := &hostLogger{w: opts.Log}
	intc := newSoftIRQ()
	h := &hostHAL{
		logger: logger,
		fb:     newHostFramebuffer(opts.Width, opts.Height),
		i2c:    NewHostI2C(),
		intc:   intc,
		cpu:    newHostCPU(intc),
	}
	for i := 0; i < 2; i++ {
		l := &hostLED{name: fmt.Sprintf("led%d", i)}
		if !opts.QuietLEDs {
			l.logger = logger
		}
		h.leds = append(h.leds, l)
	}
	return &HostBoard{hostHAL: h}
}

// HostBoard is the simulated board. It exposes the simulator state that
// the window, the metrics exporter and tests look at.
type HostBoard struct {
	*hostHAL
}

// Bus returns the simulated two-wire bus.
func (b *HostBoard) Bus() *HostI2C { return b.i2c }

// LEDState reports whether LED i is lit.
func (b *HostBoard) LEDState(i int) bool {
	if i < 0 || i >= len(b.leds) {
		return false
	}
	return b.leds[i].On()
}

// Halted is closed once the firmware has powered the core down.
func (b *HostBoard) Halted() <-chan struct{} { return b.cpu.halted }

// Stop halts the simulated timer.
func (b *HostBoard) Stop() { b.intc.stopTimer() }

// Shutdown stops the board when its owner shuts down.
func (b *HostBoard) Shutdown() error {
	b.Stop()
	return nil
}

func (h *hostHAL) Logger() Logger         { return h.logger }
func (h *hostHAL) Display() Display       { return hostDisplay{fb: h.fb} }
func (h *hostHAL) I2C() drivers.I2C       { return h.i2c }
func (h *hostHAL) CPU() CPU               { return h.cpu }
func (h *hostHAL) Interrupts() Interrupts { return h.intc }

func (h *hostHAL) LEDs() []LED {
	out := make([]LED, len(h.leds))
	for i, l := range h.leds {
		out[i] = l
	}
	return out
}

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

type hostLED struct {
	mu     sync.Mutex
	name   string
	on     bool
	logger *hostLogger
}

func (l *hostLED) High() { l.set(true) }
func (l *hostLED) Low()  { l.set(false) }

func (l *hostLED) set(on bool) {
	l.mu.Lock()
	changed := l.on != on
	l.on = on
	l.mu.Unlock()
	if changed && l.logger != nil {
		state := "LOW"
		if on {
			state = "HIGH"
		}
		l.logger.WriteLineString(l.name + ": " + state)
	}
}

func (l *hostLED) On() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}
