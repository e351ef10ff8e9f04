package region

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

type csvRow struct {
	Date string  `csv:"date"`
	NDWI float64 `csv:"ndwi"`
}

// SaveCSV writes one date,ndwi row per point.
func SaveCSV(path string, ts *TimeSeries) error {
	rows := make([]*csvRow, len(ts.Points))
	for i, p := range ts.Points {
		rows[i] = &csvRow{Date: p.Date.Format("2006-01-02"), NDWI: p.Value}
	}

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create time series file: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("failed to write time series to %s: %w", path, err)
	}
	return nil
}
