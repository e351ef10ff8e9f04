package sentinel

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
)

const (
	processPath  = "/api/v1/process"
	maxImageSize = 2500
	crs84        = "http://www.opengis.net/def/crs/OGC/1.3/CRS84"
)

// auxiliaryBands follow the configured bands in every downloaded scene.
var auxiliaryBands = []string{"dataMask", "CLM", "CLP"}

func calculatePixels(distance float64, resolution float64) int {
	pixels := distance * (111_000.0 / resolution)
	if pixels < 1 {
		return 1
	}
	if pixels > maxImageSize {
		return maxImageSize
	}
	return int(pixels)
}

// imageDimensions sizes a bbox in WGS84 degrees for the given resolution in meters.
func imageDimensions(bbox orb.Bound, resolution float64) (width, height int) {
	midLat := (bbox.Min.Y() + bbox.Max.Y()) / 2 * math.Pi / 180
	width = calculatePixels((bbox.Max.X()-bbox.Min.X())*math.Cos(midLat), resolution)
	height = calculatePixels(bbox.Max.Y()-bbox.Min.Y(), resolution)
	return width, height
}

func evalscript(bands []string) string {
	inputs := append(append([]string(nil), bands...), auxiliaryBands...)
	quoted := make([]string, len(inputs))
	samples := make([]string, len(inputs))
	for i, b := range inputs {
		quoted[i] = fmt.Sprintf("%q", b)
		samples[i] = "sample." + b
	}

	return fmt.Sprintf(`//VERSION=3
function setup() {
  return {
    input: [{ bands: [%s] }],
    output: { id: "default", bands: %d, sampleType: SampleType.FLOAT32 },
  };
}

function evaluatePixel(sample) {
  return [%s];
}
`, strings.Join(quoted, ", "), len(inputs), strings.Join(samples, ", "))
}

func (c *Client) processPayload(bbox orb.Bound, ts time.Time) map[string]any {
	half := c.cfg.TimeDifference / 2
	width, height := imageDimensions(bbox, c.cfg.Resolution)

	return map[string]any{
		"input": map[string]any{
			"bounds": map[string]any{
				"bbox":       bboxArray(bbox),
				"properties": map[string]string{"crs": crs84},
			},
			"data": []map[string]any{
				{
					"type": c.cfg.DataCollection,
					"dataFilter": map[string]any{
						"timeRange": map[string]string{
							"from": ts.Add(-half).UTC().Format(time.RFC3339),
							"to":   ts.Add(half).UTC().Format(time.RFC3339),
						},
						"maxCloudCoverage": c.cfg.CloudTolerance * 100,
						"mosaickingOrder":  "mostRecent",
					},
				},
			},
		},
		"output": map[string]any{
			"width":  width,
			"height": height,
			"responses": []map[string]any{
				{
					"identifier": "default",
					"format":     map[string]string{"type": "image/tiff"},
				},
			},
		},
		"evalscript": evalscript(c.cfg.BandNames),
	}
}

// requestScene downloads the scene of one acquisition as a GeoTIFF and returns its
// path. Already downloaded scenes are reused.
func (c *Client) requestScene(ctx context.Context, bbox orb.Bound, ts time.Time) (string, error) {
	payload := c.processPayload(bbox, ts)
	key := c.scenes.GenerateKey(c.cfg.InstanceID, payload)
	if path, ok := c.scenes.Get(key); ok {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	content, err := c.postJSON(ctx, processPath, payload, "image/tiff")
	if err != nil {
		return "", fmt.Errorf("failed to request scene %s: %w", ts.Format(time.RFC3339), err)
	}

	path := filepath.Join(c.scenes.Dir(), key+".tif")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	if err := c.scenes.Set(key, path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to cache scene location")
	}
	return path, nil
}
