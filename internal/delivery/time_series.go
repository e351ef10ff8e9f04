package delivery

import (
	"context"
	"fmt"

	"github.com/forest-guardian/water-guardian-cli/internal/region"
	"github.com/forest-guardian/water-guardian-cli/internal/sentinel"
	"github.com/forest-guardian/water-guardian-cli/output"
	"github.com/rs/zerolog/log"
)

type TimeSeriesResult struct {
	Series   *region.TimeSeries
	CSVPath  string
	PlotPath string
}

// EvaluateTimeSeries extracts the share of water inside the region polygon for every
// stored acquisition.
func (s *Service) EvaluateTimeSeries(ctx context.Context, r Region, interval sentinel.TimeInterval) (*TimeSeriesResult, error) {
	p, err := s.LoadRegionPatch(ctx, r, interval)
	if err != nil {
		return nil, err
	}
	geometry, err := s.geometry(r)
	if err != nil {
		return nil, err
	}
	height, width, ok := p.Dimensions()
	if !ok {
		return nil, fmt.Errorf("patch of %s has no raster layer", r)
	}
	mask, err := region.Rasterize(p.BBox, geometry, height, width)
	if err != nil {
		return nil, err
	}

	series, err := region.Extract(p, mask, s.cfg.Thresholds.NDWI)
	if err != nil {
		return nil, fmt.Errorf("failed to extract time series: %w", err)
	}

	result := &TimeSeriesResult{
		Series:   series,
		CSVPath:  s.resultPath(r, "timeseries", interval.String()+".csv"),
		PlotPath: s.resultPath(r, "timeseries", interval.String()+".png"),
	}
	if err := region.SaveCSV(result.CSVPath, series); err != nil {
		return nil, fmt.Errorf("error saving time series: %w", err)
	}
	if err := output.CreateTimeSeriesPlot(result.PlotPath, fmt.Sprintf("Water share of %s", r), series); err != nil {
		log.Warn().Err(err).Str("region", r.String()).Msg("time series plot skipped")
		result.PlotPath = ""
	}

	log.Info().Str("region", r.String()).Int("dates", len(series.Points)).Msg("time series extracted")
	return result, nil
}
