package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/airbusgeo/godal"
	"github.com/forest-guardian/water-guardian-cli/internal/raster"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
)

// SaveMaskGeoTIFF writes mask as a single Byte band (1 true, 0 false) georeferenced to
// bbox in WGS84.
func SaveMaskGeoTIFF(outputPath string, mask raster.Grid[bool], bbox orb.Bound) error {
	if mask.Width == 0 || mask.Height == 0 {
		return fmt.Errorf("cannot write an empty mask")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create result folder: %w", err)
	}

	ds, err := godal.Create(godal.GTiff, outputPath, 1, godal.Byte, mask.Width, mask.Height)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outputPath, err)
	}
	if err := writeMask(ds, mask, bbox); err != nil {
		ds.Close()
		return err
	}
	if err := ds.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", outputPath, err)
	}
	log.Info().Str("path", outputPath).Msg("mask GeoTIFF created")
	return nil
}

func writeMask(ds *godal.Dataset, mask raster.Grid[bool], bbox orb.Bound) error {
	sr, err := godal.NewSpatialRefFromEPSG(4326)
	if err != nil {
		return err
	}
	defer sr.Close()
	if err := ds.SetSpatialRef(sr); err != nil {
		return fmt.Errorf("failed to set spatial reference: %w", err)
	}

	transform := [6]float64{
		bbox.Min.X(), (bbox.Max.X() - bbox.Min.X()) / float64(mask.Width), 0,
		bbox.Max.Y(), 0, -(bbox.Max.Y() - bbox.Min.Y()) / float64(mask.Height),
	}
	if err := ds.SetGeoTransform(transform); err != nil {
		return fmt.Errorf("failed to set geotransform: %w", err)
	}

	data := make([]uint8, len(mask.Values))
	for i, v := range mask.Values {
		if v {
			data[i] = 1
		}
	}
	if err := ds.Bands()[0].Write(0, 0, data, mask.Width, mask.Height); err != nil {
		return fmt.Errorf("failed to write mask: %w", err)
	}
	return nil
}
