package utils

import (
	"slices"
	"time"
)

// SortDates sorts in place and drops exact duplicates.
func SortDates(dates []time.Time, asc bool) []time.Time {
	slices.SortFunc(dates, func(a, b time.Time) int {
		if asc {
			return a.Compare(b)
		}
		return b.Compare(a)
	})
	return slices.CompactFunc(dates, time.Time.Equal)
}
