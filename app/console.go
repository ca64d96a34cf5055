package app

import (
	"fmt"
	"image/color"

	"ember/hal"
	"ember/kernel"
	"ember/ksync"

	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

// LineSize is the longest log line; longer lines are truncated.
const LineSize = 64

// Line is a fixed-size log line, passed by value through the log channel.
type Line struct {
	n   uint8
	buf [LineSize]byte
}

// MakeLine copies s into a line, truncating it to LineSize bytes.
func MakeLine(s string) Line {
	var l Line
	l.n = uint8(copy(l.buf[:], s))
	return l
}

// Linef formats a line.
func Linef(format string, args ...any) Line {
	return MakeLine(fmt.Sprintf(format, args...))
}

func (l Line) Bytes() []byte  { return l.buf[:l.n] }
func (l Line) String() string { return string(l.buf[:l.n]) }

// Console drains the log channel into the board logger and a terminal on
// the framebuffer. It finishes once every producer has called Done and the
// channel is empty.
type Console struct {
	log       *ksync.Channel[Line]
	out       hal.Logger
	disp      *hal.FBDisplayer
	term      *tinyterm.Terminal
	producers int
	recv      *ksync.Recv[Line]
	written   int
}

// NewConsole returns a console reading log. producers is the number of
// Done calls that end it.
func NewConsole(log *ksync.Channel[Line], out hal.Logger, d hal.Display, producers int) *Console {
	c := &Console{log: log, out: out, producers: producers, recv: log.Dequeue()}
	if d != nil {
		if fb := d.Framebuffer(); fb != nil && fb.Buffer() != nil {
			c.disp = hal.NewDisplayer(fb)
			c.disp.FillRectangle(0, 0, int16(fb.Width()), int16(fb.Height()), color.RGBA{A: 255})
			c.term = tinyterm.NewTerminal(c.disp)
			c.term.Configure(&tinyterm.Config{
				Font:       &proggy.TinySZ8pt7b,
				FontHeight: 10,
				FontOffset: 6,
			})
		}
	}
	return c
}

// Done marks one producer as finished.
func (c *Console) Done() {
	if c.producers > 0 {
		c.producers--
	}
}

// Written returns the number of lines written so far.
func (c *Console) Written() int { return c.written }

func (c *Console) Poll(cx *kernel.Context) bool {
	drew := false
	for {
		l, ok := c.recv.Poll(cx)
		if !ok {
			break
		}
		c.write(l)
		drew = true
	}
	if drew && c.disp != nil {
		c.disp.Display()
	}
	return c.producers == 0 && c.log.IsEmpty()
}

func (c *Console) write(l Line) {
	c.written++
	if c.out != nil {
		c.out.WriteLineBytes(l.Bytes())
	}
	if c.term != nil {
		c.term.Write(l.Bytes())
		c.term.Write([]byte("\r\n"))
	}
}
