package hal

import (
	"image/color"

	"tinygo.org/x/drivers"
)

// FBDisplayer draws on an RGB565 framebuffer. It satisfies
// drivers.Displayer plus the rectangle and scroll calls tinyterm uses.
type FBDisplayer struct {
	fb Framebuffer
}

var _ drivers.Displayer = (*FBDisplayer)(nil)

// NewDisplayer returns a displayer for fb. Drawing on a nil or non-RGB565
// framebuffer does nothing.
func NewDisplayer(fb Framebuffer) *FBDisplayer {
	if fb != nil && (fb.Format() != PixelFormatRGB565 || fb.Buffer() == nil) {
		fb = nil
	}
	return &FBDisplayer{fb: fb}
}

func (d *FBDisplayer) Size() (x, y int16) {
	if d.fb == nil {
		return 0, 0
	}
	return int16(d.fb.Width()), int16(d.fb.Height())
}

func (d *FBDisplayer) SetPixel(x, y int16, c color.RGBA) {
	if d.fb == nil {
		return
	}
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= d.fb.Width() || iy < 0 || iy >= d.fb.Height() {
		return
	}
	d.put(iy*d.fb.StrideBytes()+ix*2, colorTo565(c))
}

// Pixel returns the RGB565 value at (x, y).
func (d *FBDisplayer) Pixel(x, y int16) uint16 {
	if d.fb == nil {
		return 0
	}
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= d.fb.Width() || iy < 0 || iy >= d.fb.Height() {
		return 0
	}
	return loadPixel(d.fb.Buffer(), iy*d.fb.StrideBytes()+ix*2)
}

func (d *FBDisplayer) put(off int, p uint16) {
	buf := d.fb.Buffer()
	if off < 0 || off+1 >= len(buf) {
		return
	}
	storePixel(buf, off, p)
}

func (d *FBDisplayer) Display() error {
	if d.fb == nil {
		return nil
	}
	return d.fb.Present()
}

func (d *FBDisplayer) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	if d.fb == nil {
		return nil
	}
	w, h := d.fb.Width(), d.fb.Height()
	x0 := clamp(int(x), 0, w)
	y0 := clamp(int(y), 0, h)
	x1 := clamp(int(x)+int(width), 0, w)
	y1 := clamp(int(y)+int(height), 0, h)

	p := colorTo565(c)
	stride := d.fb.StrideBytes()
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			d.put(py*stride+px*2, p)
		}
	}
	return nil
}

// ScrollUp moves the picture up by lines rows and fills the exposed rows
// with bg.
func (d *FBDisplayer) ScrollUp(lines int16, bg color.RGBA) error {
	if d.fb == nil || lines <= 0 {
		return nil
	}
	w, h := d.fb.Width(), d.fb.Height()
	n := int(lines)
	if n >= h {
		return d.FillRectangle(0, 0, int16(w), int16(h), bg)
	}
	stride := d.fb.StrideBytes()
	buf := d.fb.Buffer()
	copy(buf[:(h-n)*stride], buf[n*stride:h*stride])
	return d.FillRectangle(0, int16(h-n), int16(w), int16(n), bg)
}

// SetScroll is a no-op: the framebuffer has no hardware scroll.
func (d *FBDisplayer) SetScroll(line int16) {}

func (d *FBDisplayer) SetRotation(rotation drivers.Rotation) error {
	if rotation != drivers.Rotation0 {
		return ErrNotImplemented
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
