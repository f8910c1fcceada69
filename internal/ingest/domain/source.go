package ingest

import (
	"strings"
	"time"
)

// SourceType identifies where an energy record came from.
type SourceType string

const (
	SourceIEX         SourceType = "IEX"
	SourceCPP         SourceType = "CPP"
	SourceConsumption SourceType = "CONSUMPTION"
)

// MWToKWh converts a 15-minute MW reading into kWh (MW x 0.25 h x 1000).
const MWToKWh = 250.0

// DateLayout is the canonical calendar date encoding inside a SlotKey.
const DateLayout = "2006-01-02"

// DisplayDateLayout is the dd/mm/yyyy rendering used in reports and error payloads.
const DisplayDateLayout = "02/01/2006"

// ParseSourceType validates a source type string.
func ParseSourceType(value string) (SourceType, error) {
	switch SourceType(strings.ToUpper(strings.TrimSpace(value))) {
	case SourceIEX:
		return SourceIEX, nil
	case SourceCPP:
		return SourceCPP, nil
	case SourceConsumption:
		return SourceConsumption, nil
	default:
		return "", ErrUnknownSource
	}
}

// IsGeneration reports whether the source carries generation in MW.
func (s SourceType) IsGeneration() bool {
	return s == SourceIEX || s == SourceCPP
}

// RawRow is one spreadsheet row; cells are read positionally.
type RawRow []string

// SourceFile is an uploaded file already decoded into rows.
type SourceFile struct {
	Name string
	Rows []RawRow
}

// SlotKey joins records across sources. Both parts are canonical strings.
type SlotKey struct {
	Date      string `json:"date"`
	TimeRange string `json:"time_range"`
}

// NewSlotKey builds a key for the given day and canonical time range.
func NewSlotKey(day time.Time, timeRange string) SlotKey {
	return SlotKey{Date: day.Format(DateLayout), TimeRange: timeRange}
}

// Day returns the key's calendar date at UTC midnight.
func (k SlotKey) Day() time.Time {
	day, err := time.ParseInLocation(DateLayout, k.Date, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return day
}

// StartMinutes returns the slot start as minutes after midnight.
func (k SlotKey) StartMinutes() int {
	minutes, _ := StartMinutes(k.TimeRange)
	return minutes
}

func (k SlotKey) String() string {
	return k.Date + " " + k.TimeRange
}

// Record is one normalized row for one source.
type Record struct {
	Key        SlotKey
	Day        time.Time
	Source     SourceType
	SourceFile string
	RawEnergy  float64
	EnergyKWh  float64
	Coerced    bool
}
