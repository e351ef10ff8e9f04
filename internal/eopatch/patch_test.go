package eopatch

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2020, 6, d, 10, 30, 0, 0, time.UTC)
}

// fullPatch builds a 3 frame, 2x2 patch where every value encodes its timestamp.
func fullPatch(t *testing.T) *Patch {
	t.Helper()
	const frames = 3
	p := New([]time.Time{day(1), day(2), day(3)}, orb.Bound{Min: orb.Point{14, 46}, Max: orb.Point{14.1, 46.1}})

	bands := NewCube[float32](Shape{Time: frames, Height: 2, Width: 2, Channels: 7})
	ndwi := NewCube[float32](Shape{Time: frames, Height: 2, Width: 2, Channels: 1})
	ndvi := NewCube[float32](Shape{Time: frames, Height: 2, Width: 2, Channels: 1})
	masks := map[string]Cube[uint8]{}
	for _, name := range []string{IsData, CLM, CLP, ValidData} {
		masks[name] = NewCube[uint8](Shape{Time: frames, Height: 2, Width: 2, Channels: 1})
	}
	coverage := NewScalarCube[float32](frames, 1)

	for tt := 0; tt < frames; tt++ {
		for i := 0; i < bands.Shape.FrameSize(); i++ {
			bands.Values[tt*bands.Shape.FrameSize()+i] = float32(tt)
		}
		for i := 0; i < 4; i++ {
			ndwi.Values[tt*4+i] = float32(tt)
			ndvi.Values[tt*4+i] = float32(tt)
			for _, m := range masks {
				m.Values[tt*4+i] = uint8(tt)
			}
		}
		coverage.Values[tt] = float32(tt)
	}

	p = p.WithData(Bands, bands).WithData(NDWI, ndwi).WithData(NDVI, ndvi).WithScalar(Coverage, coverage)
	for name, m := range masks {
		p = p.WithMask(name, m)
	}
	require.NoError(t, p.Validate())
	return p
}

func TestDeleteFrameShrinksEveryLayer(t *testing.T) {
	p := fullPatch(t)

	out, err := p.DeleteFrame(1)
	require.NoError(t, err)
	require.NoError(t, out.Validate())

	assert.Equal(t, []time.Time{day(1), day(3)}, out.Timestamps)
	for name, c := range out.Data {
		assert.Equal(t, 2, c.Shape.Time, name)
		assert.Equal(t, float32(0), c.Frame(0)[0], name)
		assert.Equal(t, float32(2), c.Frame(1)[0], name)
	}
	for name, c := range out.Mask {
		assert.Equal(t, 2, c.Shape.Time, name)
		assert.Equal(t, []uint8{2, 2, 2, 2}, c.Frame(1), name)
	}
	assert.Equal(t, []float32{0, 2}, out.Scalar[Coverage].Values)
	assert.Len(t, out.Features(), len(p.Features()))
}

func TestDeleteFrameLeavesInputUntouched(t *testing.T) {
	p := fullPatch(t)

	_, err := p.DeleteFrame(0)
	require.NoError(t, err)

	assert.Equal(t, 3, p.Len())
	assert.Equal(t, 3, p.Data[Bands].Shape.Time)
	assert.Equal(t, []float32{0, 1, 2}, p.Scalar[Coverage].Values)
}

func TestDeleteFrameOutOfRange(t *testing.T) {
	p := fullPatch(t)

	_, err := p.DeleteFrame(3)
	assert.Error(t, err)
	_, err = p.DeleteFrame(-1)
	assert.Error(t, err)
}

func TestDeleteEveryFrame(t *testing.T) {
	p := fullPatch(t)
	var err error
	for p.Len() > 0 {
		p, err = p.DeleteFrame(0)
		require.NoError(t, err)
	}

	require.NoError(t, p.Validate())
	assert.Empty(t, p.Data[NDWI].Values)
	assert.Equal(t, 2, p.Data[NDWI].Shape.Height)
}

func TestValidateReportsMismatches(t *testing.T) {
	p := fullPatch(t)

	bad := p.WithMask("SHORT", NewCube[uint8](Shape{Time: 2, Height: 2, Width: 2, Channels: 1}))
	assert.ErrorContains(t, bad.Validate(), "mask/SHORT")

	bad = p.WithData("WIDE", NewCube[float32](Shape{Time: 3, Height: 2, Width: 5, Channels: 1}))
	assert.Error(t, bad.Validate())

	broken := NewCube[float32](Shape{Time: 3, Height: 2, Width: 2, Channels: 1})
	broken.Values = broken.Values[:5]
	assert.Error(t, p.WithData("BROKEN", broken).Validate())

	_, err := p.WithData("BROKEN", broken).DeleteFrame(0)
	assert.Error(t, err)
}

func TestWithDataDoesNotModifyReceiver(t *testing.T) {
	p := fullPatch(t)
	out := p.WithData("EXTRA", NewCube[float32](Shape{Time: 3, Height: 2, Width: 2, Channels: 1}))

	assert.NotContains(t, p.Data, "EXTRA")
	assert.Contains(t, out.Data, "EXTRA")
}

func TestIsEmptyAndDimensions(t *testing.T) {
	empty := New(nil, orb.Bound{})
	assert.True(t, empty.IsEmpty())
	_, _, ok := empty.Dimensions()
	assert.False(t, ok)

	p := fullPatch(t)
	assert.False(t, p.IsEmpty())
	h, w, ok := p.Dimensions()
	assert.True(t, ok)
	assert.Equal(t, 2, h)
	assert.Equal(t, 2, w)
}

func TestCubeChannel(t *testing.T) {
	c := NewCube[float32](Shape{Time: 2, Height: 2, Width: 3, Channels: 2})
	c.Set(1, 1, 2, 1, 5)
	c.Set(1, 1, 2, 0, 4)

	g := c.Channel(1, 1)
	assert.Equal(t, 2, g.Height)
	assert.Equal(t, 3, g.Width)
	assert.Equal(t, float32(5), g.At(1, 2))
	assert.Equal(t, float32(4), c.Channel(1, 0).At(1, 2))
	assert.Equal(t, float32(0), c.Channel(0, 1).At(1, 2))
}
