package delivery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/forest-guardian/water-guardian-cli/internal/acquisition"
	"github.com/forest-guardian/water-guardian-cli/internal/eopatch"
	"github.com/forest-guardian/water-guardian-cli/internal/properties"
	"github.com/forest-guardian/water-guardian-cli/internal/region"
	"github.com/forest-guardian/water-guardian-cli/internal/sentinel"
	"github.com/forest-guardian/water-guardian-cli/internal/storage"
	"github.com/paulmach/orb"
)

// Service runs the end to end operations behind the CLI. Areas are GeoJSON files in
// data/geojsons whose features carry a region_id.
type Service struct {
	cfg     *properties.Config
	adapter *acquisition.Adapter
}

func NewService(ctx context.Context, cfg *properties.Config) (*Service, error) {
	client, err := sentinel.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewServiceWithFetcher(cfg, client)
}

func NewServiceWithFetcher(cfg *properties.Config, fetcher acquisition.Fetcher) (*Service, error) {
	store, err := storage.NewStore(storage.DefaultCacheSize)
	if err != nil {
		return nil, err
	}
	adapter, err := acquisition.NewAdapter(cfg, fetcher, store)
	if err != nil {
		return nil, err
	}
	return &Service{cfg: cfg, adapter: adapter}, nil
}

// Region names a feature of an area file.
type Region struct {
	Area string
	ID   string
}

func (r Region) String() string {
	return fmt.Sprintf("%s/%s", r.Area, r.ID)
}

func (s *Service) geojsonPath(area string) string {
	return s.cfg.DataPath("geojsons", area+".geojson")
}

func (s *Service) patchDir(r Region) string {
	return s.cfg.DataPath("patches", r.Area, r.ID)
}

func (s *Service) resultDir(r Region, kind string) string {
	return s.cfg.DataPath("result", r.Area, r.ID, kind)
}

func (s *Service) geometry(r Region) (orb.Geometry, error) {
	return region.LoadGeometry(s.geojsonPath(r.Area), r.ID)
}

// geoPoints turns a bound into the two (lat, lon) corners the adapter expects.
func geoPoints(b orb.Bound) [2][2]float64 {
	return [2][2]float64{
		{b.Min.Y(), b.Min.X()},
		{b.Max.Y(), b.Max.X()},
	}
}

// LoadRegionPatch returns the stored patch of the region or downloads it over interval.
func (s *Service) LoadRegionPatch(ctx context.Context, r Region, interval sentinel.TimeInterval) (*eopatch.Patch, error) {
	geometry, err := s.geometry(r)
	if err != nil {
		return nil, err
	}
	return s.adapter.GetPatch(ctx, s.patchDir(r), geoPoints(geometry.Bound()), interval)
}

// DeleteFrame drops timestamp index from the stored patch of the region.
func (s *Service) DeleteFrame(r Region, index int) (*eopatch.Patch, error) {
	return s.adapter.DeleteFrame(s.patchDir(r), index)
}

func (s *Service) ListAreas() ([]string, error) {
	entries, err := os.ReadDir(s.cfg.DataPath("geojsons"))
	if err != nil {
		return nil, fmt.Errorf("error reading geojsons folder: %w", err)
	}
	var areas []string
	for _, entry := range entries {
		if name, ok := strings.CutSuffix(entry.Name(), ".geojson"); ok && !entry.IsDir() {
			areas = append(areas, name)
		}
	}
	slices.Sort(areas)
	return areas, nil
}

func (s *Service) ListRegions(area string) ([]string, error) {
	return region.ListRegionIDs(s.geojsonPath(area))
}

func (s *Service) fileName(r Region, suffix string) string {
	return fmt.Sprintf("%s_%s_%s", r.Area, r.ID, suffix)
}

func (s *Service) resultPath(r Region, kind, suffix string) string {
	return filepath.Join(s.resultDir(r, kind), s.fileName(r, suffix))
}
