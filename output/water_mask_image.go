package output

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/forest-guardian/water-guardian-cli/internal/eopatch"
	"github.com/forest-guardian/water-guardian-cli/internal/raster"
	"github.com/forest-guardian/water-guardian-cli/internal/water"
	"github.com/rs/zerolog/log"
)

const (
	minTileSize = 256
	titleHeight = 24
	rgbGain     = 3.5
)

// PanelOptions selects the frame shown in the RGB and NDWI tiles and the BANDS
// channels used as red, green and blue. A negative channel is drawn black.
type PanelOptions struct {
	Frame int
	RGB   [3]int
}

type tile struct {
	title string
	pixel func(y, x int) color.RGBA
}

// CreateWaterMaskImage draws a 2x3 panel: true colour, NDWI, water mask, water over
// true colour, water edges and shores.
func CreateWaterMaskImage(outputPath string, p *eopatch.Patch, masks *water.Masks, opts PanelOptions) error {
	if opts.Frame < 0 || opts.Frame >= p.Len() {
		return fmt.Errorf("frame %d out of range for %d timestamps", opts.Frame, p.Len())
	}
	ndwi, ok := p.Data[eopatch.NDWI]
	if !ok {
		return fmt.Errorf("patch has no %s layer", eopatch.NDWI)
	}
	h, w := masks.Water.Height, masks.Water.Width
	if ndwi.Shape.Height != h || ndwi.Shape.Width != w {
		return fmt.Errorf("water mask is %dx%d, patch is %dx%d", h, w, ndwi.Shape.Height, ndwi.Shape.Width)
	}

	rgb := rgbPixel(p, opts)
	index := ndwi.Channel(opts.Frame, 0)
	tiles := []tile{
		{"True colour", rgb},
		{"NDWI", func(y, x int) color.RGBA {
			v := float64(index.At(y, x))
			if math.IsNaN(v) {
				return noData
			}
			return valueToColor(normalize(v, -1, 1))
		}},
		{"Water mask", gridPixel(masks.Water, waterBlue, white)},
		{"Water over true colour", func(y, x int) color.RGBA {
			if masks.Water.At(y, x) {
				return waterRed
			}
			return rgb(y, x)
		}},
		{"Water edges", gridPixel(masks.Edges, white, black)},
		{"Shores", gridPixel(masks.Shores, white, black)},
	}

	scale := 1
	if size := max(h, w); size > 0 && size < minTileSize {
		scale = int(math.Ceil(float64(minTileSize) / float64(size)))
	}
	tileW, tileH := w*scale, h*scale+titleHeight

	dc := gg.NewContext(3*tileW, 2*tileH)
	dc.SetColor(white)
	dc.Clear()
	for i, t := range tiles {
		ox, oy := (i%3)*tileW, (i/3)*tileH
		dc.SetColor(black)
		dc.DrawStringAnchored(t.title, float64(ox)+float64(tileW)/2, float64(oy)+titleHeight/2, 0.5, 0.5)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dc.SetColor(t.pixel(y, x))
				dc.DrawRectangle(float64(ox+x*scale), float64(oy+titleHeight+y*scale), float64(scale), float64(scale))
				dc.Fill()
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create result folder: %w", err)
	}
	if err := dc.SavePNG(outputPath); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	log.Info().Str("path", outputPath).Msg("water mask image created")
	return nil
}

func gridPixel(g raster.Grid[bool], on, off color.RGBA) func(y, x int) color.RGBA {
	return func(y, x int) color.RGBA {
		return boolColor(g.At(y, x), on, off)
	}
}

func rgbPixel(p *eopatch.Patch, opts PanelOptions) func(y, x int) color.RGBA {
	bands, ok := p.Data[eopatch.Bands]
	return func(y, x int) color.RGBA {
		var c [3]uint8
		for i, ch := range opts.RGB {
			if !ok || ch < 0 || ch >= bands.Shape.Channels {
				continue
			}
			v := float64(bands.At(opts.Frame, y, x, ch)) * rgbGain
			if math.IsNaN(v) {
				continue
			}
			c[i] = uint8(255 * normalize(v, 0, 1))
		}
		return color.RGBA{R: c[0], G: c[1], B: c[2], A: 255}
	}
}
