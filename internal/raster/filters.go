package raster

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Mode selects how samples outside the grid are produced.
type Mode int

const (
	// Reflect mirrors about the edge of the last pixel (d c b a | a b c d | d c b a).
	Reflect Mode = iota
	// Constant pads with a fixed value.
	Constant
)

// Truncate is the kernel radius in standard deviations.
const Truncate = 4.0

// GaussianKernel returns a normalized 1D kernel of radius int(Truncate*sigma+0.5).
func GaussianKernel(sigma float64) []float64 {
	if sigma <= 0 {
		return []float64{1}
	}
	radius := int(Truncate*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = math.Exp(-0.5 * x * x / (sigma * sigma))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)
	return kernel
}

func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}

// Correlate1D correlates every line along axis (0 = rows/y, 1 = columns/x) with weights.
// The weights are centred on the middle element.
func Correlate1D(g Grid[float64], weights []float64, axis int, mode Mode, cval float64) Grid[float64] {
	out := NewGrid[float64](g.Height, g.Width)
	radius := len(weights) / 2

	length, lines := g.Width, g.Height
	if axis == 0 {
		length, lines = g.Height, g.Width
	}
	sample := func(line, pos int) float64 {
		if pos < 0 || pos >= length {
			if mode == Constant {
				return cval
			}
			pos = reflectIndex(pos, length)
		}
		if axis == 0 {
			return g.Values[pos*g.Width+line]
		}
		return g.Values[line*g.Width+pos]
	}

	for line := 0; line < lines; line++ {
		for pos := 0; pos < length; pos++ {
			var sum float64
			for k, w := range weights {
				sum += w * sample(line, pos+k-radius)
			}
			if axis == 0 {
				out.Values[pos*g.Width+line] = sum
			} else {
				out.Values[line*g.Width+pos] = sum
			}
		}
	}
	return out
}

// GaussianFilter smooths along both axes with the same sigma.
func GaussianFilter(g Grid[float64], sigma float64, mode Mode, cval float64) Grid[float64] {
	kernel := GaussianKernel(sigma)
	out := Correlate1D(g, kernel, 0, mode, cval)
	return Correlate1D(out, kernel, 1, mode, cval)
}

// Sobel returns the derivative along axis smoothed across the other one.
func Sobel(g Grid[float64], axis int) Grid[float64] {
	out := Correlate1D(g, []float64{-1, 0, 1}, axis, Reflect, 0)
	return Correlate1D(out, []float64{1, 2, 1}, 1-axis, Reflect, 0)
}
