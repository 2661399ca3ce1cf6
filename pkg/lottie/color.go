package lottie

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ColorAt evaluates a colour property. Components are 0-1 floats; documents
// written with 0-255 components are detected and rescaled.
func ColorAt(p Property, frame float64) colorful.Color {
	v := p.At(frame)
	if len(v) < 3 {
		return colorful.Color{}
	}
	r, g, b := v[0], v[1], v[2]
	if r > 1 || g > 1 || b > 1 {
		r, g, b = r/255, g/255, b/255
	}
	return colorful.Color{R: r, G: g, B: b}.Clamped()
}

// SolidColor parses a solid layer's hex colour. Invalid values yield black.
func SolidColor(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}
	}
	return c
}

// NRGBA combines a colour with an opacity in 0..1.
func NRGBA(c colorful.Color, opacity float64) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(clamp01(opacity)*255 + 0.5)}
}
