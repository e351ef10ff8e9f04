package ui

import (
	"fmt"
)

// LoadRegion handles the UI for downloading or loading the patch of a region
func (m *menu) LoadRegion() {
	PrintWarning("- A stored region is loaded from disk and the interval is ignored.\n- Acquisitions with too little valid data are dropped.")

	r, err := m.ReadRegion()
	if err != nil {
		PrintError(err.Error())
		return
	}
	interval, err := ReadTimeInterval()
	if err != nil {
		PrintError(err.Error())
		return
	}

	p, err := m.service.LoadRegionPatch(m.ctx, r, interval)
	if err != nil {
		PrintError(fmt.Sprintf("Error loading region: %s", err.Error()))
		m.notifyError(fmt.Sprintf("Error loading region %s: %s", r, err.Error()))
		return
	}

	dates := make([]string, p.Len())
	for i, ts := range p.Timestamps {
		dates[i] = fmt.Sprintf("%d. %s", i, ts.Format("2006-01-02 15:04"))
	}
	printList(fmt.Sprintf("Acquisitions of %s", r), dates)
}

// AnalyzeWaterMask handles the UI for deriving the water mask of a region
func (m *menu) AnalyzeWaterMask() {
	r, err := m.ReadRegion()
	if err != nil {
		PrintError(err.Error())
		return
	}
	interval, err := ReadTimeInterval()
	if err != nil {
		PrintError(err.Error())
		return
	}

	result, err := m.service.EvaluateWaterMask(m.ctx, r, interval)
	if err != nil {
		PrintError(fmt.Sprintf("Error evaluating water mask: %s", err.Error()))
		m.notifyError(fmt.Sprintf("Error evaluating water mask of %s: %s", r, err.Error()))
		return
	}

	message := fmt.Sprintf("Successful analysis!\nResultant image located at: %s\nResultant GeoTIFF located at: %s", result.ImagePath, result.GeoTIFFPath)
	PrintSuccess(message)
	m.notifySuccess(message)
}

// AnalyzeTimeSeries handles the UI for extracting the water time series of a region
func (m *menu) AnalyzeTimeSeries() {
	r, err := m.ReadRegion()
	if err != nil {
		PrintError(err.Error())
		return
	}
	interval, err := ReadTimeInterval()
	if err != nil {
		PrintError(err.Error())
		return
	}

	result, err := m.service.EvaluateTimeSeries(m.ctx, r, interval)
	if err != nil {
		PrintError(fmt.Sprintf("Error extracting time series: %s", err.Error()))
		m.notifyError(fmt.Sprintf("Error extracting time series of %s: %s", r, err.Error()))
		return
	}

	rows := make([]string, len(result.Series.Points))
	for i, point := range result.Series.Points {
		rows[i] = fmt.Sprintf("%s  %.3f", point.Date.Format("2006-01-02"), point.Value)
	}
	printList("Water share per date", rows)

	message := fmt.Sprintf("Successful analysis!\nResultant csv located at: %s", result.CSVPath)
	if result.PlotPath != "" {
		message += fmt.Sprintf("\nResultant plot located at: %s", result.PlotPath)
	}
	PrintSuccess(message)
	m.notifySuccess(message)
}

// RemoveFrame handles the UI for removing an acquisition from a stored region
func (m *menu) RemoveFrame() {
	PrintWarning("The acquisition is removed from every layer of the stored region.")

	r, err := m.ReadRegion()
	if err != nil {
		PrintError(err.Error())
		return
	}
	index, err := ReadInt("Enter the index of the acquisition to remove: ", 0, 1<<31-1)
	if err != nil {
		PrintError(err.Error())
		return
	}

	p, err := m.service.DeleteFrame(r, index)
	if err != nil {
		PrintError(fmt.Sprintf("Error removing acquisition: %s", err.Error()))
		return
	}
	PrintSuccess(fmt.Sprintf("Acquisition %d removed, %d left in %s", index, p.Len(), r))
}
