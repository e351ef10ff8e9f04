package eopatch

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/paulmach/orb"
)

const (
	Bands     = "BANDS"
	NDWI      = "NDWI"
	NDVI      = "NDVI"
	IsData    = "IS_DATA"
	CLM       = "CLM"
	CLP       = "CLP"
	ValidData = "VALID_DATA"
	Coverage  = "COVERAGE"
)

type FeatureType string

const (
	FeatureData   FeatureType = "data"
	FeatureMask   FeatureType = "mask"
	FeatureScalar FeatureType = "scalar"
)

type Feature struct {
	Type FeatureType
	Name string
}

func (f Feature) String() string {
	return fmt.Sprintf("%s/%s", f.Type, f.Name)
}

// Patch is a raster time series over one bounding box. Layers are keyed by name inside
// three arenas. A patch is never modified once built: every operation returns a new one
// that shares the untouched layers.
type Patch struct {
	Timestamps []time.Time
	BBox       orb.Bound
	Data       map[string]Cube[float32]
	Mask       map[string]Cube[uint8]
	Scalar     map[string]Cube[float32]
}

func New(timestamps []time.Time, bbox orb.Bound) *Patch {
	return &Patch{
		Timestamps: slices.Clone(timestamps),
		BBox:       bbox,
		Data:       map[string]Cube[float32]{},
		Mask:       map[string]Cube[uint8]{},
		Scalar:     map[string]Cube[float32]{},
	}
}

// IsEmpty reports whether the patch holds no data layer.
func (p *Patch) IsEmpty() bool {
	return p == nil || len(p.Data) == 0
}

func (p *Patch) Len() int {
	return len(p.Timestamps)
}

func (p *Patch) copy() *Patch {
	return &Patch{
		Timestamps: slices.Clone(p.Timestamps),
		BBox:       p.BBox,
		Data:       maps.Clone(p.Data),
		Mask:       maps.Clone(p.Mask),
		Scalar:     maps.Clone(p.Scalar),
	}
}

func (p *Patch) WithData(name string, c Cube[float32]) *Patch {
	out := p.copy()
	out.Data[name] = c
	return out
}

func (p *Patch) WithMask(name string, c Cube[uint8]) *Patch {
	out := p.copy()
	out.Mask[name] = c
	return out
}

func (p *Patch) WithScalar(name string, c Cube[float32]) *Patch {
	out := p.copy()
	out.Scalar[name] = c
	return out
}

// Features lists the layers in a stable order.
func (p *Patch) Features() []Feature {
	var features []Feature
	for _, name := range slices.Sorted(maps.Keys(p.Data)) {
		features = append(features, Feature{FeatureData, name})
	}
	for _, name := range slices.Sorted(maps.Keys(p.Mask)) {
		features = append(features, Feature{FeatureMask, name})
	}
	for _, name := range slices.Sorted(maps.Keys(p.Scalar)) {
		features = append(features, Feature{FeatureScalar, name})
	}
	return features
}

// Dimensions returns the spatial size shared by data and mask layers.
func (p *Patch) Dimensions() (height, width int, ok bool) {
	for _, name := range slices.Sorted(maps.Keys(p.Data)) {
		s := p.Data[name].Shape
		return s.Height, s.Width, true
	}
	for _, name := range slices.Sorted(maps.Keys(p.Mask)) {
		s := p.Mask[name].Shape
		return s.Height, s.Width, true
	}
	return 0, 0, false
}

// Validate checks that all layers agree on time, height and width.
func (p *Patch) Validate() error {
	var errs []error
	h, w, spatial := p.Dimensions()
	check := func(f Feature, s Shape, valuesErr error, isScalar bool) {
		if valuesErr != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f, valuesErr))
		}
		if s.Time != len(p.Timestamps) {
			errs = append(errs, fmt.Errorf("%s: %d timestamps, patch has %d", f, s.Time, len(p.Timestamps)))
		}
		if !isScalar && spatial && (s.Height != h || s.Width != w) {
			errs = append(errs, fmt.Errorf("%s: size %dx%d, patch is %dx%d", f, s.Height, s.Width, h, w))
		}
	}
	for name, c := range p.Data {
		check(Feature{FeatureData, name}, c.Shape, c.validate(), false)
	}
	for name, c := range p.Mask {
		check(Feature{FeatureMask, name}, c.Shape, c.validate(), false)
	}
	for name, c := range p.Scalar {
		check(Feature{FeatureScalar, name}, c.Shape, c.validate(), true)
	}
	return errors.Join(errs...)
}

// DeleteFrame returns a patch without timestamp index. Every layer, and the timestamp
// list itself, is rebuilt from filtered copies so a failure leaves nothing half updated.
func (p *Patch) DeleteFrame(index int) (*Patch, error) {
	if index < 0 || index >= len(p.Timestamps) {
		return nil, fmt.Errorf("frame index %d out of range for %d timestamps", index, len(p.Timestamps))
	}
	return p.SelectFrames(func(t int) bool { return t != index })
}

// SelectFrames keeps the timestamps for which keep returns true.
func (p *Patch) SelectFrames(keep func(t int) bool) (*Patch, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("inconsistent patch: %w", err)
	}
	out := New(nil, p.BBox)
	for t, ts := range p.Timestamps {
		if keep(t) {
			out.Timestamps = append(out.Timestamps, ts)
		}
	}
	for name, c := range p.Data {
		out.Data[name] = c.Select(keep)
	}
	for name, c := range p.Mask {
		out.Mask[name] = c.Select(keep)
	}
	for name, c := range p.Scalar {
		out.Scalar[name] = c.Select(keep)
	}
	return out, nil
}
