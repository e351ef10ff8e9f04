package delivery

import (
	"context"
	"fmt"

	"github.com/forest-guardian/water-guardian-cli/internal/eopatch"
	"github.com/forest-guardian/water-guardian-cli/internal/sentinel"
	"github.com/forest-guardian/water-guardian-cli/internal/water"
	"github.com/forest-guardian/water-guardian-cli/output"
	"github.com/rs/zerolog/log"
)

type WaterMaskResult struct {
	Patch       *eopatch.Patch
	Masks       *water.Masks
	ImagePath   string
	GeoTIFFPath string
}

func (s *Service) waterParams() water.Params {
	return water.Params{
		WaterThreshold: s.cfg.Thresholds.Water,
		CannySigma:     s.cfg.Thresholds.CannySigma,
		GaussSigma:     s.cfg.Thresholds.GaussSigma,
	}
}

// EvaluateWaterMask derives the water mask of the region and renders it next to the
// most recent acquisition.
func (s *Service) EvaluateWaterMask(ctx context.Context, r Region, interval sentinel.TimeInterval) (*WaterMaskResult, error) {
	p, err := s.LoadRegionPatch(ctx, r, interval)
	if err != nil {
		return nil, err
	}
	if p.Len() == 0 {
		return nil, fmt.Errorf("no cloud free acquisition stored for %s", r)
	}

	masks, err := water.GetWaterMask(p, s.waterParams())
	if err != nil {
		return nil, fmt.Errorf("failed to derive water mask: %w", err)
	}

	frame := p.Len() - 1
	date := p.Timestamps[frame].Format(sentinel.DateLayout)
	result := &WaterMaskResult{
		Patch:       p,
		Masks:       masks,
		ImagePath:   s.resultPath(r, "water", date+".png"),
		GeoTIFFPath: s.resultPath(r, "water", date+".tif"),
	}

	opts := output.PanelOptions{
		Frame: frame,
		RGB:   [3]int{s.cfg.BandIndex("B04"), s.cfg.BandIndex("B03"), s.cfg.BandIndex("B02")},
	}
	if err := output.CreateWaterMaskImage(result.ImagePath, p, masks, opts); err != nil {
		return nil, fmt.Errorf("error creating water mask image: %w", err)
	}
	if err := output.SaveMaskGeoTIFF(result.GeoTIFFPath, masks.Water, p.BBox); err != nil {
		return nil, fmt.Errorf("error creating water mask GeoTIFF: %w", err)
	}

	log.Info().Str("region", r.String()).Int("timestamps", p.Len()).Msg("water mask evaluated")
	return result, nil
}
