package output

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/forest-guardian/water-guardian-cli/internal/region"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// CreateTimeSeriesPlot charts the water share of a region over time. Dates without a
// value are left out.
func CreateTimeSeriesPlot(outputPath, title string, ts *region.TimeSeries) error {
	var pts plotter.XYs
	for _, point := range ts.Points {
		if math.IsNaN(point.Value) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(point.Date.Unix()), Y: point.Value})
	}
	if len(pts) == 0 {
		return errors.New("time series has no values to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Water share"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Y.Min, p.Y.Max = 0, 1
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 30, G: 110, B: 220, A: 255}
	line.Width = vg.Points(1)

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	scatter.Color = line.Color
	scatter.Radius = vg.Points(2)
	p.Add(line, scatter)

	if err := os.MkdirAll(filepath.Dir(outputPath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create result folder: %w", err)
	}
	if err := p.Save(14*vg.Inch, 6*vg.Inch, outputPath); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	log.Info().Str("path", outputPath).Int("points", len(pts)).Msg("time series plot created")
	return nil
}
