package sentinel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/forest-guardian/water-guardian-cli/internal/eopatch"
	"github.com/gammazero/workerpool"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

// Fetch searches the catalog, drops acquisitions closer than the configured time
// difference and downloads one scene per remaining timestamp. The result holds the
// BANDS data layer and the IS_DATA, CLM and CLP masks.
func (c *Client) Fetch(ctx context.Context, bbox orb.Bound, interval TimeInterval) (*eopatch.Patch, error) {
	found, err := c.SearchTimestamps(ctx, bbox, interval)
	if err != nil {
		return nil, err
	}
	timestamps := FilterTimes(found, c.cfg.TimeDifference)
	log.Info().
		Int("found", len(found)).
		Int("kept", len(timestamps)).
		Str("collection", c.cfg.DataCollection).
		Msg("downloading scenes")

	scenes, err := c.downloadScenes(ctx, bbox, timestamps)
	if err != nil {
		return nil, err
	}
	return assemblePatch(bbox, timestamps, scenes, len(c.cfg.BandNames), c.cfg.Resolution)
}

func (c *Client) downloadScenes(ctx context.Context, bbox orb.Bound, timestamps []time.Time) ([]*Scene, error) {
	var (
		scenes      = make([]*Scene, len(timestamps))
		errs        []error
		mu          sync.Mutex
		progressBar = progressbar.Default(int64(len(timestamps)), "Downloading scenes")
	)

	wp := workerpool.New(c.cfg.MaxThreads)
	for i, ts := range timestamps {
		wp.Submit(func() {
			defer progressBar.Add(1)
			if ctx.Err() != nil {
				return
			}
			scene, err := c.downloadScene(ctx, bbox, ts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			scenes[i] = scene
		})
	}
	wp.StopWait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return scenes, nil
}

func (c *Client) downloadScene(ctx context.Context, bbox orb.Bound, ts time.Time) (*Scene, error) {
	path, err := c.requestScene(ctx, bbox, ts)
	if err != nil {
		return nil, err
	}
	return decodeScene(path, ts, len(c.cfg.BandNames))
}

func assemblePatch(bbox orb.Bound, timestamps []time.Time, scenes []*Scene, nBands int, resolution float64) (*eopatch.Patch, error) {
	width, height := imageDimensions(bbox, resolution)
	if len(scenes) > 0 {
		width, height = scenes[0].Width, scenes[0].Height
	}

	shape := eopatch.Shape{Time: len(scenes), Height: height, Width: width, Channels: nBands}
	maskShape := shape
	maskShape.Channels = 1
	bands := eopatch.NewCube[float32](shape)
	isData := eopatch.NewCube[uint8](maskShape)
	clm := eopatch.NewCube[uint8](maskShape)
	clp := eopatch.NewCube[uint8](maskShape)

	frame := shape.FrameSize()
	pixels := maskShape.FrameSize()
	for t, scene := range scenes {
		if scene.Width != width || scene.Height != height {
			return nil, fmt.Errorf("scene %s is %dx%d, expected %dx%d", scene.Timestamp.Format(time.RFC3339), scene.Height, scene.Width, height, width)
		}
		copy(bands.Values[t*frame:], scene.Bands)
		copy(isData.Values[t*pixels:], scene.IsData)
		copy(clm.Values[t*pixels:], scene.CLM)
		copy(clp.Values[t*pixels:], scene.CLP)
	}

	return eopatch.New(timestamps, bbox).
		WithData(eopatch.Bands, bands).
		WithMask(eopatch.IsData, isData).
		WithMask(eopatch.CLM, clm).
		WithMask(eopatch.CLP, clp), nil
}
