package workflow

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/forest-guardian/water-guardian-cli/internal/eopatch"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var days = []time.Time{
	time.Date(2020, 5, 1, 10, 0, 0, 0, time.UTC),
	time.Date(2020, 5, 6, 10, 0, 0, 0, time.UTC),
	time.Date(2020, 5, 11, 10, 0, 0, 0, time.UTC),
}

// scenePatch is 3 timestamps of 2x2 pixels with bands B03, B04, B8A. Frame 0 is fully
// valid, frame 1 has one cloudy pixel and frame 2 has no data at all.
func scenePatch() *eopatch.Patch {
	shape := eopatch.Shape{Time: 3, Height: 2, Width: 2, Channels: 3}
	bands := eopatch.NewCube[float32](shape)
	for i := 0; i < shape.Size()/3; i++ {
		bands.Values[i*3+0] = 0.3 // B03
		bands.Values[i*3+1] = 0.2 // B04
		bands.Values[i*3+2] = 0.1 // B8A
	}
	maskShape := shape
	maskShape.Channels = 1
	isData := eopatch.NewCube[uint8](maskShape)
	clm := eopatch.NewCube[uint8](maskShape)
	for i := 0; i < 8; i++ {
		isData.Values[i] = 1
	}
	clm.Values[4] = 1

	return eopatch.New(days, orb.Bound{Max: orb.Point{1, 1}}).
		WithData(eopatch.Bands, bands).
		WithMask(eopatch.IsData, isData).
		WithMask(eopatch.CLM, clm)
}

func pipeline(threshold float64) *LinearWorkflow {
	return NewLinearWorkflow(
		NormalizedDifferenceIndexTask{Input: eopatch.Bands, Output: eopatch.NDWI, BandA: 0, BandB: 2},
		NormalizedDifferenceIndexTask{Input: eopatch.Bands, Output: eopatch.NDVI, BandA: 2, BandB: 1},
		AddValidDataMaskTask{},
		AddValidDataCoverageTask{},
		SimpleFilterTask{Predicate: ValidDataCoveragePredicate{Threshold: threshold}},
	)
}

func TestNormalizedDifference(t *testing.T) {
	assert.InDelta(t, 0.5, NormalizedDifference(0.3, 0.1), 1e-12)
	assert.InDelta(t, -1.0, NormalizedDifference(0, 0.4), 1e-12)
	assert.True(t, math.IsNaN(NormalizedDifference(0, 0)))
}

func TestNormalizedDifferenceIndexTask(t *testing.T) {
	p := scenePatch()

	out, err := NormalizedDifferenceIndexTask{Input: eopatch.Bands, Output: eopatch.NDWI, BandA: 0, BandB: 2}.Execute(p)
	require.NoError(t, err)

	ndwi := out.Data[eopatch.NDWI]
	assert.Equal(t, eopatch.Shape{Time: 3, Height: 2, Width: 2, Channels: 1}, ndwi.Shape)
	assert.InDelta(t, 0.5, ndwi.At(1, 1, 0, 0), 1e-6)
	assert.NotContains(t, p.Data, eopatch.NDWI)

	_, err = NormalizedDifferenceIndexTask{Input: eopatch.Bands, Output: eopatch.NDWI, BandA: 0, BandB: 3}.Execute(p)
	assert.Error(t, err)
	_, err = NormalizedDifferenceIndexTask{Input: "MISSING", Output: eopatch.NDWI}.Execute(p)
	assert.Error(t, err)
}

func TestCalculateValidDataMask(t *testing.T) {
	shape := eopatch.Shape{Time: 1, Height: 1, Width: 4, Channels: 1}
	isData := eopatch.Cube[uint8]{Shape: shape, Values: []uint8{1, 1, 0, 0}}
	clm := eopatch.Cube[uint8]{Shape: shape, Values: []uint8{0, 1, 0, 1}}

	valid, err := CalculateValidDataMask(isData, clm)
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 0, 0, 0}, valid.Values)

	_, err = CalculateValidDataMask(isData, eopatch.NewCube[uint8](eopatch.Shape{Time: 2, Height: 1, Width: 4, Channels: 1}))
	assert.Error(t, err)
}

func TestCalculateCoverage(t *testing.T) {
	assert.Equal(t, 0.0, CalculateCoverage([]uint8{1, 1, 1, 1}))
	assert.Equal(t, 1.0, CalculateCoverage([]uint8{0, 0, 0, 0}))
	assert.Equal(t, 0.25, CalculateCoverage([]uint8{1, 1, 0, 1}))
}

func TestWorkflowFiltersCloudyFrames(t *testing.T) {
	out, err := pipeline(0.1).Execute(scenePatch())
	require.NoError(t, err)

	require.Equal(t, 1, out.Len())
	assert.Equal(t, days[0], out.Timestamps[0])
	for _, f := range out.Features() {
		switch f.Type {
		case eopatch.FeatureData:
			assert.Equal(t, 1, out.Data[f.Name].Shape.Time, f.String())
		case eopatch.FeatureMask:
			assert.Equal(t, 1, out.Mask[f.Name].Shape.Time, f.String())
		case eopatch.FeatureScalar:
			assert.Equal(t, 1, out.Scalar[f.Name].Shape.Time, f.String())
		}
	}
	assert.Equal(t, float32(0), out.Scalar[eopatch.Coverage].Values[0])
}

func TestWorkflowKeepsFramesBelowTolerance(t *testing.T) {
	out, err := pipeline(0.3).Execute(scenePatch())
	require.NoError(t, err)

	require.Equal(t, 2, out.Len())
	assert.Equal(t, []float32{0, 0.25}, out.Scalar[eopatch.Coverage].Values)
}

func TestExecuteWithSnapshots(t *testing.T) {
	out, snapshots, err := pipeline(0.1).ExecuteWithSnapshots(scenePatch())
	require.NoError(t, err)

	require.Len(t, snapshots, 5)
	assert.Same(t, out, snapshots[4].Patch)
	assert.Equal(t, 3, snapshots[3].Patch.Len())
	assert.Contains(t, snapshots[2].Patch.Mask, eopatch.ValidData)
	assert.NotContains(t, snapshots[2].Patch.Scalar, eopatch.Coverage)
}

type failingTask struct{}

func (failingTask) Name() string { return "boom" }

func (failingTask) Execute(*eopatch.Patch) (*eopatch.Patch, error) {
	return nil, errors.New("exploded")
}

func TestWorkflowStopsAtFailingTask(t *testing.T) {
	_, err := NewLinearWorkflow(AddValidDataMaskTask{}, failingTask{}, AddValidDataCoverageTask{}).Execute(scenePatch())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "exploded")
}

func TestFilterWithoutCoverageFails(t *testing.T) {
	_, err := SimpleFilterTask{Predicate: ValidDataCoveragePredicate{Threshold: 0.1}}.Execute(scenePatch())
	assert.Error(t, err)
}
