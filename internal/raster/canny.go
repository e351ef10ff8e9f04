package raster

import "math"

const (
	cannyLowThreshold  = 0.1
	cannyHighThreshold = 0.2
)

// Canny detects edges of a boolean image. The image is smoothed with a zero padded
// Gaussian normalized by the padding bleed-over, edges are thinned by non-maximum
// suppression and kept by hysteresis between 0.1 and 0.2 of the boolean range.
// The outermost pixel ring never holds an edge.
func Canny(image Grid[bool], sigma float64) Grid[bool] {
	h, w := image.Height, image.Width
	edges := NewGrid[bool](h, w)
	if h < 3 || w < 3 {
		return edges
	}

	ones := NewGrid[float64](h, w)
	for i := range ones.Values {
		ones.Values[i] = 1
	}
	bleedOver := GaussianFilter(ones, sigma, Constant, 0)
	smoothed := GaussianFilter(ToFloat(image), sigma, Constant, 0)
	eps := math.Nextafter(1, 2) - 1
	for i := range smoothed.Values {
		smoothed.Values[i] /= bleedOver.Values[i] + eps
	}

	jsobel := Sobel(smoothed, 1)
	isobel := Sobel(smoothed, 0)
	magnitude := NewGrid[float64](h, w)
	for i := range magnitude.Values {
		magnitude.Values[i] = math.Hypot(isobel.Values[i], jsobel.Values[i])
	}

	localMaxima := nonMaximumSuppression(isobel, jsobel, magnitude)

	lowMask := NewGrid[bool](h, w)
	for i, isMax := range localMaxima.Values {
		lowMask.Values[i] = isMax && magnitude.Values[i] >= cannyLowThreshold
	}

	// hysteresis over 8-connected components
	visited := make([]bool, h*w)
	var stack, component []int
	for start := range lowMask.Values {
		if !lowMask.Values[start] || visited[start] {
			continue
		}
		component = component[:0]
		stack = append(stack[:0], start)
		visited[start] = true
		strong := false
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, i)
			if magnitude.Values[i] >= cannyHighThreshold {
				strong = true
			}
			y, x := i/w, i%w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					ny, nx := y+dy, x+dx
					if ny < 0 || ny >= h || nx < 0 || nx >= w {
						continue
					}
					j := ny*w + nx
					if lowMask.Values[j] && !visited[j] {
						visited[j] = true
						stack = append(stack, j)
					}
				}
			}
		}
		if strong {
			for _, i := range component {
				edges.Values[i] = true
			}
		}
	}
	return edges
}

// nonMaximumSuppression keeps pixels whose magnitude is not smaller than the values
// interpolated on both sides along the gradient direction.
func nonMaximumSuppression(isobel, jsobel, magnitude Grid[float64]) Grid[bool] {
	h, w := magnitude.Height, magnitude.Width
	out := NewGrid[bool](h, w)
	mag := func(y, x int) float64 { return magnitude.Values[y*w+x] }

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			m := mag(y, x)
			if m <= 0 {
				continue
			}
			is, js := isobel.At(y, x), jsobel.At(y, x)
			ai, aj := math.Abs(is), math.Abs(js)
			sameSign := (is >= 0 && js >= 0) || (is <= 0 && js <= 0)
			oppositeSign := (is <= 0 && js >= 0) || (is >= 0 && js <= 0)
			keep := false

			// 0-45 degrees
			if sameSign && ai >= aj {
				wt := aj / ai
				plus := mag(y+1, x+1)*wt+mag(y+1, x)*(1-wt) <= m
				minus := mag(y-1, x-1)*wt+mag(y-1, x)*(1-wt) <= m
				keep = plus && minus
			}
			// 45-90 degrees
			if sameSign && ai <= aj {
				wt := ai / aj
				plus := mag(y+1, x+1)*wt+mag(y, x+1)*(1-wt) <= m
				minus := mag(y-1, x-1)*wt+mag(y, x-1)*(1-wt) <= m
				keep = plus && minus
			}
			// 90-135 degrees
			if oppositeSign && ai <= aj {
				wt := ai / aj
				plus := mag(y-1, x+1)*wt+mag(y, x+1)*(1-wt) <= m
				minus := mag(y+1, x-1)*wt+mag(y, x-1)*(1-wt) <= m
				keep = plus && minus
			}
			// 135-180 degrees
			if oppositeSign && ai >= aj {
				wt := aj / ai
				plus := mag(y-1, x+1)*wt+mag(y-1, x)*(1-wt) <= m
				minus := mag(y+1, x-1)*wt+mag(y+1, x)*(1-wt) <= m
				keep = plus && minus
			}
			out.Values[y*w+x] = keep
		}
	}
	return out
}
