package region

import (
	"math"
	"testing"
	"time"

	"github.com/forest-guardian/water-guardian-cli/internal/eopatch"
	"github.com/forest-guardian/water-guardian-cli/internal/raster"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	morning = time.Date(2020, 5, 3, 9, 59, 12, 0, time.UTC)
	evening = time.Date(2020, 5, 8, 22, 1, 0, 0, time.UTC)
)

// patch2x2 has two timestamps of 2x2 NDWI values and validity masks.
func patch2x2(ndwi [2][4]float32, valid [2][4]uint8) *eopatch.Patch {
	shape := eopatch.Shape{Time: 2, Height: 2, Width: 2, Channels: 1}
	n := eopatch.NewCube[float32](shape)
	v := eopatch.NewCube[uint8](shape)
	for t := 0; t < 2; t++ {
		copy(n.Values[t*4:], ndwi[t][:])
		copy(v.Values[t*4:], valid[t][:])
	}
	return eopatch.New([]time.Time{morning, evening}, orb.Bound{}).
		WithData(eopatch.NDWI, n).
		WithMask(eopatch.ValidData, v)
}

func allTrue(h, w int) raster.Grid[bool] {
	g := raster.NewGrid[bool](h, w)
	for i := range g.Values {
		g.Values[i] = true
	}
	return g
}

func TestExtractMeanOverRegionAndValidPixels(t *testing.T) {
	p := patch2x2(
		[2][4]float32{{0.5, 0.1, 0.3, 0.5}, {0.0, 0.6, 0.2, 0.1}},
		[2][4]uint8{{1, 1, 1, 0}, {1, 1, 1, 1}},
	)
	mask, _ := raster.FromRows([][]bool{{true, true}, {false, true}})

	ts, err := Extract(p, mask, 0.2)
	require.NoError(t, err)
	require.Len(t, ts.Points, 2)

	// frame 0: region pixels 0.5, 0.1 valid, 0.5 invalid -> 1 of 2
	assert.Equal(t, time.Date(2020, 5, 3, 0, 0, 0, 0, time.UTC), ts.Points[0].Date)
	assert.InDelta(t, 0.5, ts.Points[0].Value, 1e-12)
	// frame 1: 0.0, 0.6, 0.1 -> 1 of 3
	assert.Equal(t, time.Date(2020, 5, 8, 0, 0, 0, 0, time.UTC), ts.Points[1].Date)
	assert.InDelta(t, 1.0/3, ts.Points[1].Value, 1e-12)

	assert.Equal(t, [][]bool{{true, false}, {false, false}}, ts.Wet[0].Rows())
	assert.Equal(t, [][]bool{{false, true}, {false, false}}, ts.Wet[1].Rows())
}

func TestExtractEmptyRegionGivesNaN(t *testing.T) {
	p := patch2x2(
		[2][4]float32{{0.5, 0.5, 0.5, 0.5}, {0.5, 0.5, 0.5, 0.5}},
		[2][4]uint8{{1, 1, 1, 1}, {1, 1, 1, 1}},
	)

	ts, err := Extract(p, raster.NewGrid[bool](2, 2), 0.2)
	require.NoError(t, err)
	for _, point := range ts.Points {
		assert.True(t, math.IsNaN(point.Value))
	}
	for _, wet := range ts.Wet {
		assert.Equal(t, 0, raster.Count(wet))
	}
}

func TestExtractFullyInvalidFrameGivesNaN(t *testing.T) {
	p := patch2x2(
		[2][4]float32{{0.5, 0.5, 0.5, 0.5}, {0.5, 0.1, 0.5, 0.1}},
		[2][4]uint8{{0, 0, 0, 0}, {1, 1, 1, 1}},
	)

	ts, err := Extract(p, allTrue(2, 2), 0.2)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(ts.Points[0].Value))
	assert.InDelta(t, 0.5, ts.Points[1].Value, 1e-12)
}

func TestExtractSkipsNaNIndex(t *testing.T) {
	nan := float32(math.NaN())
	p := patch2x2(
		[2][4]float32{{nan, 0.5, 0.1, 0.1}, {nan, nan, nan, nan}},
		[2][4]uint8{{1, 1, 1, 1}, {1, 1, 1, 1}},
	)

	ts, err := Extract(p, allTrue(2, 2), 0.2)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3, ts.Points[0].Value, 1e-12)
	assert.True(t, math.IsNaN(ts.Points[1].Value))
}

func TestExtractRejectsMismatchedMask(t *testing.T) {
	p := patch2x2([2][4]float32{}, [2][4]uint8{})

	_, err := Extract(p, raster.NewGrid[bool](3, 2), 0.2)
	assert.Error(t, err)
}

func TestExtractNeedsValidDataMask(t *testing.T) {
	p := eopatch.New([]time.Time{morning}, orb.Bound{}).
		WithData(eopatch.NDWI, eopatch.NewCube[float32](eopatch.Shape{Time: 1, Height: 2, Width: 2, Channels: 1}))

	_, err := Extract(p, allTrue(2, 2), 0.2)
	assert.ErrorContains(t, err, eopatch.ValidData)
}
