package water

import (
	"fmt"

	"github.com/forest-guardian/water-guardian-cli/internal/eopatch"
	"github.com/forest-guardian/water-guardian-cli/internal/raster"
)

type Params struct {
	WaterThreshold float64
	CannySigma     float64
	GaussSigma     float64
}

func DefaultParams() Params {
	return Params{WaterThreshold: 0.4, CannySigma: 5, GaussSigma: 1}
}

// Masks are the water mask and the grids derived from it.
type Masks struct {
	Water      raster.Grid[bool]
	Edges      raster.Grid[bool]
	Shores     raster.Grid[bool]
	ShoreEdges raster.Grid[bool]
}

// WetFrames thresholds every NDWI frame. NaN never counts as wet.
func WetFrames(p *eopatch.Patch, threshold float64) ([]raster.Grid[bool], error) {
	ndwi, ok := p.Data[eopatch.NDWI]
	if !ok {
		return nil, fmt.Errorf("patch has no %s layer", eopatch.NDWI)
	}
	if ndwi.Shape.Channels != 1 {
		return nil, fmt.Errorf("%s must have a single channel, got %d", eopatch.NDWI, ndwi.Shape.Channels)
	}

	frames := make([]raster.Grid[bool], ndwi.Shape.Time)
	for t := range frames {
		values := ndwi.Channel(t, 0)
		wet := raster.NewGrid[bool](values.Height, values.Width)
		for i, v := range values.Values {
			// comparisons with NaN are false
			wet.Values[i] = float64(v) >= threshold
		}
		frames[t] = wet
	}
	return frames, nil
}

// GetWaterMask marks a pixel as water when it was wet at any timestamp, then
// derives the edges of the mask, the shores around them and the edges of the shores.
func GetWaterMask(p *eopatch.Patch, params Params) (*Masks, error) {
	frames, err := WetFrames(p, params.WaterThreshold)
	if err != nil {
		return nil, err
	}
	height, width, _ := p.Dimensions()

	water := raster.NewGrid[bool](height, width)
	for _, frame := range frames {
		for i, wet := range frame.Values {
			water.Values[i] = water.Values[i] || wet
		}
	}

	edges := raster.Canny(water, params.CannySigma)
	shores := Shores(edges, params.GaussSigma)

	return &Masks{
		Water:      water,
		Edges:      edges,
		Shores:     shores,
		ShoreEdges: raster.Canny(shores, params.CannySigma),
	}, nil
}

// Shores smooths the inverted edges and inverts back. The smoothed grid is read as a
// boolean that is true only where the whole kernel saw true, so the edge boundary grows
// by the kernel radius.
func Shores(edges raster.Grid[bool], sigma float64) raster.Grid[bool] {
	smoothed := raster.GaussianFilter(raster.ToFloat(raster.Not(edges)), sigma, raster.Reflect, 0)
	// a single false sample lowers the sum by at least the smallest 2D weight
	kernel := raster.GaussianKernel(sigma)
	allTrue := 1 - kernel[0]*kernel[0]/2

	shores := raster.NewGrid[bool](edges.Height, edges.Width)
	for i, v := range smoothed.Values {
		shores.Values[i] = v < allTrue
	}
	return shores
}
