package sentinel

import (
	"fmt"
	"math"
	"time"

	"github.com/airbusgeo/godal"
)

// Scene is one decoded acquisition. Bands is row-major [y][x][band].
type Scene struct {
	Timestamp time.Time
	Height    int
	Width     int
	Bands     []float32
	IsData    []uint8
	CLM       []uint8
	CLP       []uint8
}

func openDataset(path string) (*godal.Dataset, error) {
	return godal.Open(path, godal.ErrLogger(func(ec godal.ErrorCategory, code int, msg string) error {
		if ec == godal.CE_Warning {
			return nil
		}
		return fmt.Errorf("gdal error %d: %s", code, msg)
	}))
}

// decodeScene reads a GeoTIFF holding nBands reflectance bands followed by the
// dataMask, CLM and CLP bands.
func decodeScene(path string, ts time.Time, nBands int) (*Scene, error) {
	ds, err := openDataset(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer ds.Close()

	structure := ds.Structure()
	width, height := structure.SizeX, structure.SizeY
	if structure.NBands != nBands+len(auxiliaryBands) {
		return nil, fmt.Errorf("%s has %d bands, expected %d", path, structure.NBands, nBands+len(auxiliaryBands))
	}

	bands := ds.Bands()
	pixels := width * height
	readBand := func(i int) ([]float32, error) {
		data := make([]float32, pixels)
		if err := bands[i].Read(0, 0, data, width, height); err != nil {
			return nil, fmt.Errorf("failed to read band %d of %s: %w", i+1, path, err)
		}
		return data, nil
	}

	scene := &Scene{
		Timestamp: ts,
		Height:    height,
		Width:     width,
		Bands:     make([]float32, pixels*nBands),
	}
	for b := 0; b < nBands; b++ {
		data, err := readBand(b)
		if err != nil {
			return nil, err
		}
		for i, v := range data {
			scene.Bands[i*nBands+b] = v
		}
	}

	masks := make([][]uint8, len(auxiliaryBands))
	for i := range auxiliaryBands {
		data, err := readBand(nBands + i)
		if err != nil {
			return nil, err
		}
		masks[i] = toUint8(data)
	}
	scene.IsData, scene.CLM, scene.CLP = masks[0], masks[1], masks[2]
	return scene, nil
}

func toUint8(values []float32) []uint8 {
	out := make([]uint8, len(values))
	for i, v := range values {
		switch {
		case math.IsNaN(float64(v)) || v <= 0:
			out[i] = 0
		case v >= 255:
			out[i] = 255
		default:
			out[i] = uint8(math.Round(float64(v)))
		}
	}
	return out
}
