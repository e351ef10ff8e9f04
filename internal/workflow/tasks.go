package workflow

import (
	"fmt"
	"math"

	"github.com/forest-guardian/water-guardian-cli/internal/eopatch"
	"github.com/rs/zerolog/log"
)

// NormalizedDifferenceIndexTask writes (A-B)/(A+B) of two channels of Input into the
// single channel data layer Output. A zero denominator gives NaN.
type NormalizedDifferenceIndexTask struct {
	Input  string
	Output string
	BandA  int
	BandB  int
}

func (t NormalizedDifferenceIndexTask) Name() string {
	return fmt.Sprintf("normalized difference %s", t.Output)
}

func (t NormalizedDifferenceIndexTask) Execute(p *eopatch.Patch) (*eopatch.Patch, error) {
	bands, ok := p.Data[t.Input]
	if !ok {
		return nil, fmt.Errorf("patch has no %s layer", t.Input)
	}
	channels := bands.Shape.Channels
	if t.BandA < 0 || t.BandA >= channels || t.BandB < 0 || t.BandB >= channels {
		return nil, fmt.Errorf("band indices %d and %d out of range for %d channels", t.BandA, t.BandB, channels)
	}

	shape := bands.Shape
	shape.Channels = 1
	out := eopatch.NewCube[float32](shape)
	for i := range out.Values {
		a := float64(bands.Values[i*channels+t.BandA])
		b := float64(bands.Values[i*channels+t.BandB])
		out.Values[i] = float32(NormalizedDifference(a, b))
	}
	return p.WithData(t.Output, out), nil
}

func NormalizedDifference(a, b float64) float64 {
	if a+b == 0 {
		return math.NaN()
	}
	return (a - b) / (a + b)
}

// AddValidDataMaskTask adds VALID_DATA = IS_DATA && !CLM.
type AddValidDataMaskTask struct{}

func (AddValidDataMaskTask) Name() string { return "valid data mask" }

func (AddValidDataMaskTask) Execute(p *eopatch.Patch) (*eopatch.Patch, error) {
	isData, ok := p.Mask[eopatch.IsData]
	if !ok {
		return nil, fmt.Errorf("patch has no %s mask", eopatch.IsData)
	}
	clm, ok := p.Mask[eopatch.CLM]
	if !ok {
		return nil, fmt.Errorf("patch has no %s mask", eopatch.CLM)
	}
	valid, err := CalculateValidDataMask(isData, clm)
	if err != nil {
		return nil, err
	}
	return p.WithMask(eopatch.ValidData, valid), nil
}

func CalculateValidDataMask(isData, clm eopatch.Cube[uint8]) (eopatch.Cube[uint8], error) {
	if isData.Shape != clm.Shape {
		return eopatch.Cube[uint8]{}, fmt.Errorf("%s shape %s does not match %s shape %s", eopatch.IsData, isData.Shape, eopatch.CLM, clm.Shape)
	}
	valid := eopatch.NewCube[uint8](isData.Shape)
	for i := range valid.Values {
		if isData.Values[i] != 0 && clm.Values[i] == 0 {
			valid.Values[i] = 1
		}
	}
	return valid, nil
}

// AddValidDataCoverageTask adds the COVERAGE scalar, the share of invalid pixels of
// every timestamp.
type AddValidDataCoverageTask struct{}

func (AddValidDataCoverageTask) Name() string { return "valid data coverage" }

func (AddValidDataCoverageTask) Execute(p *eopatch.Patch) (*eopatch.Patch, error) {
	valid, ok := p.Mask[eopatch.ValidData]
	if !ok {
		return nil, fmt.Errorf("patch has no %s mask", eopatch.ValidData)
	}
	coverage := eopatch.NewScalarCube[float32](valid.Shape.Time, 1)
	for t := 0; t < valid.Shape.Time; t++ {
		coverage.Values[t] = float32(CalculateCoverage(valid.Frame(t)))
	}
	return p.WithScalar(eopatch.Coverage, coverage), nil
}

// CalculateCoverage returns 1 - valid/total for one frame of the validity mask.
func CalculateCoverage(frame []uint8) float64 {
	if len(frame) == 0 {
		return 1
	}
	var valid int
	for _, v := range frame {
		if v != 0 {
			valid++
		}
	}
	return 1 - float64(valid)/float64(len(frame))
}

// Predicate builds the keep function of a patch's timestamps.
type Predicate interface {
	Keep(p *eopatch.Patch) (func(t int) bool, error)
}

// ValidDataCoveragePredicate keeps frames whose COVERAGE is below Threshold.
type ValidDataCoveragePredicate struct {
	Threshold float64
}

func (v ValidDataCoveragePredicate) Keep(p *eopatch.Patch) (func(t int) bool, error) {
	coverage, ok := p.Scalar[eopatch.Coverage]
	if !ok {
		return nil, fmt.Errorf("patch has no %s scalar", eopatch.Coverage)
	}
	return func(t int) bool {
		return float64(coverage.At(t, 0, 0, 0)) < v.Threshold
	}, nil
}

// SimpleFilterTask drops every timestamp the predicate rejects from all layers.
type SimpleFilterTask struct {
	Predicate Predicate
}

func (SimpleFilterTask) Name() string { return "filter timestamps" }

func (f SimpleFilterTask) Execute(p *eopatch.Patch) (*eopatch.Patch, error) {
	keep, err := f.Predicate.Keep(p)
	if err != nil {
		return nil, err
	}
	out, err := p.SelectFrames(keep)
	if err != nil {
		return nil, err
	}
	if dropped := p.Len() - out.Len(); dropped > 0 {
		log.Info().Int("dropped", dropped).Int("kept", out.Len()).Msg("filtered timestamps")
	}
	return out, nil
}
