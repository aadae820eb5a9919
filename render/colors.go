package render

import (
	"image/color"
	"strconv"
	"strings"
)

// parseHex converts "#rrggbb" (or "#rgb") into a color with the given
// opacity baked into the alpha channel. Unparseable values render as black
// rather than failing the frame.
func parseHex(hex string, opacity float64) color.Color {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	r, g, b := uint8(0), uint8(0), uint8(0)
	h := strings.TrimPrefix(hex, "#")
	switch len(h) {
	case 6:
		if v, err := strconv.ParseUint(h, 16, 32); err == nil {
			r, g, b = uint8(v>>16), uint8(v>>8), uint8(v)
		}
	case 3:
		if v, err := strconv.ParseUint(h, 16, 16); err == nil {
			r = uint8(v >> 8 & 0xf)
			g = uint8(v >> 4 & 0xf)
			b = uint8(v & 0xf)
			r, g, b = r<<4|r, g<<4|g, b<<4|b
		}
	}
	a := opacity * 255
	// Premultiplied by alpha, matching image/color.RGBA semantics.
	return color.RGBA{
		R: uint8(float64(r) * opacity),
		G: uint8(float64(g) * opacity),
		B: uint8(float64(b) * opacity),
		A: uint8(a),
	}
}
