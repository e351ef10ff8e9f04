package ui

import "fmt"

// ListAreas handles the UI for viewing the list of available areas
func (m *menu) ListAreas() {
	PrintWarning("To add a new area, add its '.geojson' file at 'data/geojsons' folder.")

	areas, err := m.service.ListAreas()
	if err != nil {
		PrintError(err.Error())
		return
	}
	printList("Available areas", areas)
}

func (m *menu) listRegions(area string) {
	PrintWarning("Regions are the features of an area '.geojson' file.\nEach region is identified by the 'region_id' property at 'features[N].properties.region_id'.")

	if area == "" {
		area = ReadString("Enter the area name: ")
	}
	regions, err := m.service.ListRegions(area)
	if err != nil {
		PrintError(err.Error())
		return
	}
	printList(fmt.Sprintf("Regions of %s", area), regions)
}
