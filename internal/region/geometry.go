package region

import (
	"fmt"
	"os"
	"slices"

	"github.com/forest-guardian/water-guardian-cli/internal/raster"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// RegionIDProperty identifies a region inside a GeoJSON feature collection.
const RegionIDProperty = "region_id"

// Rasterize marks the pixels whose centre falls inside geometry. Row 0 is the
// northern edge of bound.
func Rasterize(bound orb.Bound, geometry orb.Geometry, height, width int) (raster.Grid[bool], error) {
	if geometry == nil {
		return raster.Grid[bool]{}, fmt.Errorf("no geometry to rasterize")
	}
	var contains func(orb.Point) bool
	switch g := geometry.(type) {
	case orb.Polygon:
		contains = func(pt orb.Point) bool { return planar.PolygonContains(g, pt) }
	case orb.MultiPolygon:
		contains = func(pt orb.Point) bool { return planar.MultiPolygonContains(g, pt) }
	case orb.Bound:
		contains = g.Contains
	default:
		return raster.Grid[bool]{}, fmt.Errorf("cannot rasterize geometry of type %s", geometry.GeoJSONType())
	}

	mask := raster.NewGrid[bool](height, width)
	dx := (bound.Max.X() - bound.Min.X()) / float64(width)
	dy := (bound.Max.Y() - bound.Min.Y()) / float64(height)
	for y := 0; y < height; y++ {
		lat := bound.Max.Y() - (float64(y)+0.5)*dy
		for x := 0; x < width; x++ {
			lon := bound.Min.X() + (float64(x)+0.5)*dx
			mask.Set(y, x, contains(orb.Point{lon, lat}))
		}
	}
	return mask, nil
}

func readFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GeoJSON %s: %w", path, err)
	}
	return fc, nil
}

func regionID(f *geojson.Feature) (string, bool) {
	v, ok := f.Properties[RegionIDProperty]
	if !ok || v == nil {
		return "", false
	}
	return fmt.Sprint(v), true
}

// LoadGeometry returns the geometry of the feature whose region_id matches id.
func LoadGeometry(path, id string) (orb.Geometry, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}
	for _, f := range fc.Features {
		if fid, ok := regionID(f); ok && fid == id {
			return f.Geometry, nil
		}
	}
	return nil, fmt.Errorf("geometry not found for region %s in %s", id, path)
}

// ListRegionIDs returns the sorted region ids of a GeoJSON file.
func ListRegionIDs(path string) ([]string, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, f := range fc.Features {
		if id, ok := regionID(f); ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no %s found in %s", RegionIDProperty, path)
	}
	slices.Sort(ids)
	return ids, nil
}
