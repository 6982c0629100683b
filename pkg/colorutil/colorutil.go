// Package colorutil provides shared color utilities for mask rendering.
package colorutil

import (
	"image/color"
	"math"
)

// Common overlay colors.
var (
	Black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// HSVToRGB converts HSV (H 0-360, S 0-1, V 0-1) to RGB (0-255).
func HSVToRGB(h, s, v float64) (r, g, b uint8) {
	c := v * s
	hp := math.Mod(h, 360) / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))

	var rf, gf, bf float64
	switch {
	case hp < 1:
		rf, gf, bf = c, x, 0
	case hp < 2:
		rf, gf, bf = x, c, 0
	case hp < 3:
		rf, gf, bf = 0, c, x
	case hp < 4:
		rf, gf, bf = 0, x, c
	case hp < 5:
		rf, gf, bf = x, 0, c
	default:
		rf, gf, bf = c, 0, x
	}

	m := v - c
	r = uint8((rf + m) * 255)
	g = uint8((gf + m) * 255)
	b = uint8((bf + m) * 255)
	return r, g, b
}

// LabelColor returns a deterministic, visually distinct color for a positive
// segment label. Consecutive labels land far apart on the hue wheel
// (golden-angle stepping), so touching segments rarely share a hue.
func LabelColor(label int32) color.RGBA {
	if label <= 0 {
		return color.RGBA{}
	}
	hue := math.Mod(float64(label)*137.508, 360)
	r, g, b := HSVToRGB(hue, 0.78, 0.95)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
