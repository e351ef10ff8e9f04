package region

import (
	"fmt"
	"math"
	"time"

	"github.com/forest-guardian/water-guardian-cli/internal/eopatch"
	"github.com/forest-guardian/water-guardian-cli/internal/raster"
)

const DefaultNDWIThreshold = 0.2

type Point struct {
	Date  time.Time
	Value float64
}

// TimeSeries holds the mean water occurrence inside a region per date and the
// per-timestamp wet grids it was computed from.
type TimeSeries struct {
	Points []Point
	Wet    []raster.Grid[bool]
}

// Extract computes, for every timestamp, the share of valid pixels inside mask whose
// NDWI reaches threshold. Pixels outside the mask, invalid at that timestamp or with a
// NaN index do not take part in the mean; a timestamp without any such pixel gives NaN.
func Extract(p *eopatch.Patch, mask raster.Grid[bool], threshold float64) (*TimeSeries, error) {
	ndwi, ok := p.Data[eopatch.NDWI]
	if !ok {
		return nil, fmt.Errorf("patch has no %s layer", eopatch.NDWI)
	}
	valid, ok := p.Mask[eopatch.ValidData]
	if !ok {
		return nil, fmt.Errorf("patch has no %s mask", eopatch.ValidData)
	}
	if ndwi.Shape.Channels != 1 || valid.Shape.Channels != 1 {
		return nil, fmt.Errorf("%s and %s must have a single channel", eopatch.NDWI, eopatch.ValidData)
	}
	if !mask.SameShape(ndwi.Shape.Height, ndwi.Shape.Width) {
		return nil, fmt.Errorf("region mask is %dx%d, patch is %dx%d", mask.Height, mask.Width, ndwi.Shape.Height, ndwi.Shape.Width)
	}
	if valid.Shape != ndwi.Shape {
		return nil, fmt.Errorf("%s shape %s does not match %s shape %s", eopatch.ValidData, valid.Shape, eopatch.NDWI, ndwi.Shape)
	}

	ts := &TimeSeries{
		Points: make([]Point, ndwi.Shape.Time),
		Wet:    make([]raster.Grid[bool], ndwi.Shape.Time),
	}
	for t := 0; t < ndwi.Shape.Time; t++ {
		values := ndwi.Channel(t, 0)
		validity := valid.Channel(t, 0)
		wet := raster.NewGrid[bool](values.Height, values.Width)

		var sum, count float64
		for i, v := range values.Values {
			if !mask.Values[i] || validity.Values[i] == 0 || math.IsNaN(float64(v)) {
				continue
			}
			count++
			if float64(v) >= threshold {
				wet.Values[i] = true
				sum++
			}
		}

		mean := math.NaN()
		if count > 0 {
			mean = sum / count
		}
		ts.Points[t] = Point{Date: calendarDate(p.Timestamps[t]), Value: mean}
		ts.Wet[t] = wet
	}
	return ts, nil
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
