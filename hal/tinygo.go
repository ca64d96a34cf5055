//go:build tinygo && baremetal

package hal

import (
	"machine"
	"time"

	"tinygo.org/x/drivers"
)

type tinyGoHAL struct {
	logger *uartLogger
	leds   []LED
	fb     Framebuffer
	i2c    *machine.I2C
	intc   *softIRQ
	cpu    *tinyGoCPU
}

// New returns a Pico 2 (RP2350) HAL implementation.
//
// UART: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1.
// LEDs: the on-board LED and GP15.
// I2C:  I2C0 on GP4 (SDA) / GP5 (SCL), 100 kHz.
func New() HAL {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	var leds []LED
	for _, pin := range []machine.Pin{machine.LED, machine.GP15} {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		leds = append(leds, &pinLED{pin: pin})
	}

	bus := machine.I2C0
	bus.Configure(machine.I2CConfig{
		SDA:       machine.GP4,
		SCL:       machine.GP5,
		Frequency: 100_000,
	})

	intc := newSoftIRQ()
	return &tinyGoHAL{
		logger: &uartLogger{uart: uart},
		leds:   leds,
		fb:     &stubFramebuffer{w: 128, h: 64, format: PixelFormatRGB565},
		i2c:    bus,
		intc:   intc,
		cpu:    &tinyGoCPU{intc: intc},
	}
}

func (h *tinyGoHAL) Logger() Logger         { return h.logger }
func (h *tinyGoHAL) LEDs() []LED            { return h.leds }
func (h *tinyGoHAL) Display() Display       { return tinyGoDisplay{fb: h.fb} }
func (h *tinyGoHAL) I2C() drivers.I2C       { return h.i2c }
func (h *tinyGoHAL) CPU() CPU               { return h.cpu }
func (h *tinyGoHAL) Interrupts() Interrupts { return h.intc }

type tinyGoDisplay struct {
	fb Framebuffer
}

func (d tinyGoDisplay) Framebuffer() Framebuffer { return d.fb }

type tinyGoCPU struct {
	intc *softIRQ
}

func (c *tinyGoCPU) Idle() { c.intc.idle() }

func (c *tinyGoCPU) PowerDown() {
	c.intc.stopTimer()
	for {
		time.Sleep(time.Hour)
	}
}

// StartTimer fires VectorTimer from a ticker goroutine.
func (c *softIRQ) StartTimer(hz int) error {
	if hz <= 0 {
		return ErrTimerRate
	}
	c.stopTimer()
	t := time.NewTicker(time.Second / time.Duration(hz))
	done := make(chan struct{})
	c.timerMu.Lock()
	c.timerStop = func() {
		t.Stop()
		close(done)
	}
	c.timerMu.Unlock()
	go func() {
		for {
			select {
			case <-done:
				return
			case <-t.C:
				c.pend(VectorTimer)
			}
		}
	}()
	return nil
}

func (c *softIRQ) stopTimer() {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if c.timerStop != nil {
		c.timerStop()
		c.timerStop = nil
	}
}

type uartLogger struct {
	uart *machine.UART
}

func (l *uartLogger) WriteLineString(s string) {
	for i := 0; i < len(s); i++ {
		l.uart.WriteByte(s[i])
	}
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

func (l *uartLogger) WriteLineBytes(b []byte) {
	l.uart.Write(b)
	l.uart.WriteByte('\r')
	l.uart.WriteByte('\n')
}

type pinLED struct {
	pin machine.Pin
}

func (l *pinLED) High() { l.pin.High() }
func (l *pinLED) Low()  { l.pin.Low() }
