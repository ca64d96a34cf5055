package hal

import (
	"encoding/binary"
	"image/color"
)

// Framebuffers store RGB565 pixels little-endian, two bytes each.

func rgb565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

func colorTo565(c color.RGBA) uint16 { return rgb565(c.R, c.G, c.B) }

// rgbaFrom565 widens p to 8 bits per channel, scaling so full intensity
// stays 0xFF.
func rgbaFrom565(p uint16) color.RGBA {
	return color.RGBA{
		R: uint8(uint32(p>>11&0x1F) * 255 / 31),
		G: uint8(uint32(p>>5&0x3F) * 255 / 63),
		B: uint8(uint32(p&0x1F) * 255 / 31),
		A: 0xFF,
	}
}

func loadPixel(buf []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(buf[off:])
}

func storePixel(buf []byte, off int, p uint16) {
	binary.LittleEndian.PutUint16(buf[off:], p)
}
