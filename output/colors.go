package output

import "image/color"

var (
	black     = color.RGBA{A: 255}
	white     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	waterBlue = color.RGBA{R: 30, G: 110, B: 220, A: 255}
	waterRed  = color.RGBA{R: 255, A: 255}
	noData    = color.RGBA{R: 128, G: 128, B: 128, A: 255}
)

func normalize(value, min, max float64) float64 {
	if max == min {
		return 0
	}
	norm := (value - min) / (max - min)
	if norm < 0 {
		return 0
	}
	if norm > 1 {
		return 1
	}
	return norm
}

// valueToColor maps 0..1 from blue through green to red.
func valueToColor(norm float64) color.RGBA {
	var r, g, b uint8
	if norm <= 0.5 {
		ratio := norm / 0.5
		g = uint8(255 * ratio)
		b = uint8(255 * (1 - ratio))
	} else {
		ratio := (norm - 0.5) / 0.5
		r = uint8(255 * ratio)
		g = uint8(255 * (1 - ratio))
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func boolColor(v bool, on, off color.RGBA) color.RGBA {
	if v {
		return on
	}
	return off
}
