package acquisition

import (
	"context"
	"fmt"

	"github.com/forest-guardian/water-guardian-cli/internal/eopatch"
	"github.com/forest-guardian/water-guardian-cli/internal/properties"
	"github.com/forest-guardian/water-guardian-cli/internal/sentinel"
	"github.com/forest-guardian/water-guardian-cli/internal/storage"
	"github.com/forest-guardian/water-guardian-cli/internal/workflow"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
)

// Fetcher downloads the raw bands and masks of a bbox over an interval.
type Fetcher interface {
	Fetch(ctx context.Context, bbox orb.Bound, interval sentinel.TimeInterval) (*eopatch.Patch, error)
}

// Adapter turns a provider download into a filtered, index-enriched patch on disk.
type Adapter struct {
	fetcher  Fetcher
	store    *storage.Store
	workflow *workflow.LinearWorkflow
}

func NewAdapter(cfg *properties.Config, fetcher Fetcher, store *storage.Store) (*Adapter, error) {
	indices := map[string]int{}
	for _, band := range []string{"B03", "B04", "B8A"} {
		i := cfg.BandIndex(band)
		if i < 0 {
			return nil, fmt.Errorf("band %s is not among the configured bands %v", band, cfg.BandNames)
		}
		indices[band] = i
	}

	return &Adapter{
		fetcher: fetcher,
		store:   store,
		workflow: workflow.NewLinearWorkflow(
			workflow.NormalizedDifferenceIndexTask{Input: eopatch.Bands, Output: eopatch.NDWI, BandA: indices["B03"], BandB: indices["B8A"]},
			workflow.NormalizedDifferenceIndexTask{Input: eopatch.Bands, Output: eopatch.NDVI, BandA: indices["B8A"], BandB: indices["B04"]},
			workflow.AddValidDataMaskTask{},
			workflow.AddValidDataCoverageTask{},
			workflow.SimpleFilterTask{Predicate: workflow.ValidDataCoveragePredicate{Threshold: cfg.CloudTolerance}},
		),
	}, nil
}

// BBoxFromGeoPoints builds a bbox from two (lat, lon) corners in any order.
func BBoxFromGeoPoints(geoPoints [2][2]float64) orb.Bound {
	return orb.MultiPoint{
		{geoPoints[0][1], geoPoints[0][0]},
		{geoPoints[1][1], geoPoints[1][0]},
	}.Bound()
}

// GetPatch returns the patch stored in dir, or downloads, processes and stores it when
// dir holds none.
func (a *Adapter) GetPatch(ctx context.Context, dir string, geoPoints [2][2]float64, interval sentinel.TimeInterval) (*eopatch.Patch, error) {
	stored, err := a.store.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load patch from %s: %w", dir, err)
	}
	if !stored.IsEmpty() {
		log.Info().Str("dir", dir).Int("timestamps", stored.Len()).Msg("loaded from local directory")
		return stored, nil
	}

	bbox := BBoxFromGeoPoints(geoPoints)
	log.Info().Str("dir", dir).Str("interval", interval.String()).Msg("downloading")
	raw, err := a.fetcher.Fetch(ctx, bbox, interval)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch patch: %w", err)
	}

	p, err := a.workflow.Execute(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to process patch: %w", err)
	}
	if err := a.store.Save(dir, p); err != nil {
		return nil, fmt.Errorf("failed to save patch to %s: %w", dir, err)
	}
	return p, nil
}

// DeleteFrame removes one timestamp from the patch stored in dir and saves the result.
func (a *Adapter) DeleteFrame(dir string, index int) (*eopatch.Patch, error) {
	stored, err := a.store.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load patch from %s: %w", dir, err)
	}
	if stored.IsEmpty() {
		return nil, fmt.Errorf("no patch stored in %s", dir)
	}
	p, err := stored.DeleteFrame(index)
	if err != nil {
		return nil, err
	}
	if err := a.store.Save(dir, p); err != nil {
		return nil, fmt.Errorf("failed to save patch to %s: %w", dir, err)
	}
	log.Info().Str("dir", dir).Int("index", index).Int("timestamps", p.Len()).Msg("frame deleted")
	return p, nil
}
