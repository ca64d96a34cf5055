// Package hal is the board layer: the only contact point between the
// runtime and the outside world. The host build simulates a board; the
// TinyGo build drives real pins.
package hal

import (
	"errors"

	"ember/irq"

	"tinygo.org/x/drivers"
)

var (
	ErrNotImplemented = errors.New("not implemented")
	ErrUnknownVector  = errors.New("hal: unknown interrupt vector")
	ErrVectorInUse    = errors.New("hal: interrupt vector already attached")
	ErrTimerRate      = errors.New("hal: invalid timer rate")
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// LED is a minimal output pin abstraction.
type LED interface {
	High()
	Low()
}

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// CPU is the power-management half of the core.
type CPU interface {
	// Idle sleeps until the next interrupt has run.
	Idle()
	// PowerDown parks the core for good. It does not return.
	PowerDown()
}

// Vector identifies an interrupt source.
type Vector uint8

const (
	VectorTimer Vector = iota
	VectorTWI
	NumVectors
)

func (v Vector) String() string {
	switch v {
	case VectorTimer:
		return "timer"
	case VectorTWI:
		return "twi"
	default:
		return "unknown"
	}
}

// Handler is an interrupt service routine. It runs with interrupts masked.
type Handler func(cs *irq.CriticalSection)

// Line raises an interrupt from software, the way a peripheral raises its
// flag. Pending an already pending line is a no-op.
type Line interface {
	Pend()
}

// Interrupts is the interrupt controller.
type Interrupts interface {
	// Attach installs h on v. Each vector takes one handler.
	Attach(v Vector, h Handler) error
	// Line returns the request line of v.
	Line(v Vector) Line
	// StartTimer fires VectorTimer hz times per second.
	StartTimer(hz int) error
	// Count returns how many times v has been serviced.
	Count(v Vector) uint64
}

// HAL provides the only contact point between the firmware and the board.
type HAL interface {
	Logger() Logger
	LEDs() []LED
	Display() Display
	I2C() drivers.I2C
	CPU() CPU
	Interrupts() Interrupts
}
