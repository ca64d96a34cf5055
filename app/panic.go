package app

import (
	"fmt"
	"image/color"
	"strings"
	"unicode/utf8"

	"ember/hal"
	"ember/kernel"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

func installPanicHandler(h hal.HAL) {
	kernel.SetPanicHandler(func(info kernel.PanicInfo) {
		lines := panicLines(info)
		if l := h.Logger(); l != nil {
			for _, line := range lines {
				l.WriteLineString(line)
			}
		}

		disp := h.Display()
		if disp == nil {
			return
		}
		fb := disp.Framebuffer()
		if fb == nil || fb.Buffer() == nil {
			return
		}
		fb.ClearRGB(255, 255, 255)
		drawPanic(hal.NewDisplayer(fb), fb.Width(), fb.Height(), lines)
		_ = fb.Present()
	})
}

func panicLines(info kernel.PanicInfo) []string {
	lines := []string{
		"ember panic:",
		fmt.Sprintf("task: %d", info.TaskID),
		fmt.Sprintf("panic: %v", info.Value),
		fmt.Sprintf("after: ticks=%d polls=%d", info.Stats.Ticks, info.Stats.Polls),
	}
	if len(info.Stack) == 0 {
		return append(lines, "stack: unavailable")
	}
	lines = append(lines, "stack:")
	for _, line := range strings.Split(string(info.Stack), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func drawPanic(d *hal.FBDisplayer, w, h int, lines []string) {
	font := &proggy.TinySZ8pt7b
	const fontHeight, fontOffset = int16(10), int16(7)
	_, outbox := tinyfont.LineWidth(font, "0")
	fontWidth := int16(outbox)
	if fontWidth <= 0 {
		return
	}
	cols := int16(w) / fontWidth
	if cols <= 0 {
		cols = 1
	}

	fg := color.RGBA{R: 0xC0, A: 255}
	y := int16(0)
	for _, line := range lines {
		for len(line) > 0 {
			if y+fontHeight > int16(h) {
				return
			}
			chunk, rest := takeRunes(line, cols)
			tinyfont.WriteLine(d, font, 0, y+fontOffset, chunk, fg)
			y += fontHeight
			line = strings.TrimLeft(rest, " ")
		}
	}
}

func takeRunes(s string, n int16) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	var i int
	for count := int16(0); i < len(s) && count < n; count++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i], s[i:]
}
