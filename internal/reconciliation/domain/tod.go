package reconciliation

import (
	ingest "adjustment-calculator/internal/ingest/domain"
)

// Category is a time-of-day tariff band.
type Category string

const (
	CategoryC1      Category = "C1"
	CategoryC2      Category = "C2"
	CategoryC4      Category = "C4"
	CategoryC5      Category = "C5"
	CategoryUnknown Category = "Unknown"
)

// Categories lists every band in report order.
var Categories = []Category{CategoryC1, CategoryC2, CategoryC4, CategoryC5, CategoryUnknown}

// Description is the human label of a band.
func (c Category) Description() string {
	switch c {
	case CategoryC1:
		return "Morning Peak"
	case CategoryC2:
		return "Evening Peak"
	case CategoryC4:
		return "Normal"
	case CategoryC5:
		return "Night"
	default:
		return "Unknown"
	}
}

// IsPeak reports whether the band carries the peak-band rate.
func (c Category) IsPeak() bool { return c == CategoryC1 || c == CategoryC2 }

// IsOffPeak reports whether the band carries the off-peak-band rate.
func (c Category) IsOffPeak() bool { return c == CategoryC5 }

// hourBand is a half-open [start, end) range of hours.
type hourBand struct {
	start, end int
	category   Category
}

func (b hourBand) contains(hour int) bool {
	return hour >= b.start && hour < b.end
}

var hourBands = []hourBand{
	{0, 5, CategoryC5},
	{5, 6, CategoryC4},
	{6, 10, CategoryC1},
	{10, 18, CategoryC4},
	{18, 22, CategoryC2},
	{22, 24, CategoryC5},
}

// Classify maps a slot label to its band by the start hour.
func Classify(timeRange string) Category {
	minutes, ok := ingest.StartMinutes(timeRange)
	if !ok {
		return CategoryUnknown
	}
	return ClassifyHour(minutes / 60)
}

// ClassifyHour maps an hour of day to its band.
func ClassifyHour(hour int) Category {
	for _, band := range hourBands {
		if band.contains(hour) {
			return band.category
		}
	}
	return CategoryUnknown
}
