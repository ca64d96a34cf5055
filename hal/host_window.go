//go:build !tinygo && cgo

package hal

import (
	"image"
	"image/color"

	"ember/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const ledStrip = 16

// RunWindow shows the board's framebuffer and LEDs in a desktop window.
// It blocks until the window closes or the firmware powers down.
func RunWindow(b *HostBoard) error {
	fb := b.fb
	g := &hostGame{b: b}
	ebiten.SetWindowTitle("ember (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(fb.width*2, (fb.height+ledStrip)*2)
	ebiten.SetTPS(60)
	err := ebiten.RunGame(g)
	if err == ebiten.Termination {
		return nil
	}
	return err
}

type hostGame struct {
	b       *HostBoard
	img     *image.RGBA
	fbImg   *ebiten.Image
	scratch []byte
	frame   uint64
}

func (g *hostGame) Update() error {
	select {
	case <-g.b.Halted():
		return ebiten.Termination
	default:
		return nil
	}
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.b.fb
	if g.img == nil {
		g.img = image.NewRGBA(image.Rect(0, 0, fb.width, fb.height))
		g.scratch = make([]byte, len(fb.buf))
		g.fbImg = ebiten.NewImage(fb.width, fb.height)
	}

	if seq := fb.presented(); seq != g.frame {
		g.frame = fb.snapshot(g.scratch)
		src := g.scratch
		dst := g.img.Pix
		for i := 0; i+1 < len(src); i += 2 {
			c := rgbaFrom565(loadPixel(src, i))
			j := (i / 2) * 4
			dst[j+0] = c.R
			dst[j+1] = c.G
			dst[j+2] = c.B
			dst[j+3] = c.A
		}
		g.fbImg.WritePixels(g.img.Pix)
	}
	screen.DrawImage(g.fbImg, nil)

	off := color.RGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xFF}
	on := color.RGBA{R: 0x20, G: 0xE0, B: 0x40, A: 0xFF}
	for i := range g.b.leds {
		c := off
		if g.b.LEDState(i) {
			c = on
		}
		x := float32(4 + i*ledStrip)
		y := float32(fb.height + ledStrip/2)
		vector.DrawFilledCircle(screen, x+ledStrip/2, y, ledStrip/2-3, c, true)
	}
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.b.fb.width, g.b.fb.height + ledStrip
}
