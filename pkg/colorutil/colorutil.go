// Package colorutil converts colours to the HSV units used for marker
// detection.
package colorutil

import (
	"image/color"
	"math"
)

// HSV converts c to HSV in OpenCV units: hue 0-180, saturation and value
// 0-255. Alpha is ignored.
func HSV(c color.Color) (h, s, v float64) {
	r16, g16, b16, _ := c.RGBA()
	r := float64(r16>>8) / 255
	g := float64(g16>>8) / 255
	b := float64(b16>>8) / 255

	maxC := math.Max(r, math.Max(g, b))
	diff := maxC - math.Min(r, math.Min(g, b))

	v = maxC * 255
	if maxC > 0 {
		s = diff / maxC * 255
	}

	switch {
	case diff == 0:
		h = 0
	case maxC == r:
		h = 60 * math.Mod((g-b)/diff, 6)
	case maxC == g:
		h = 60 * ((b-r)/diff + 2)
	default:
		h = 60 * ((r-g)/diff + 4)
	}
	if h < 0 {
		h += 360
	}
	return h / 2, s, v
}
