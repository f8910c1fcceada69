package ingest

import (
	"strconv"
	"strings"
	"time"
)

// DateOrder decides how ambiguous numeric dates such as 03/04/2024 are read.
type DateOrder int

const (
	DayFirst DateOrder = iota
	MonthFirst
)

func (o DateOrder) String() string {
	if o == MonthFirst {
		return "month-first"
	}
	return "day-first"
}

var namedMonthLayouts = []string{
	"02-Jan-2006",
	"2-Jan-2006",
	"02-Jan-06",
	"2-Jan-06",
	"02 Jan 2006",
	"2 Jan 2006",
	"02 January 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate reads a date cell. Year-first and named-month forms are unambiguous;
// purely numeric forms follow order. Any trailing time-of-day part is ignored.
func ParseDate(value string, order DateOrder) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if idx := strings.IndexAny(value, "T "); idx > 0 && looksNumericDate(value[:idx]) {
		value = value[:idx]
	}

	for _, layout := range namedMonthLayouts {
		if parsed, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return parsed, true
		}
	}

	parts := splitDate(value)
	if len(parts) != 3 {
		return time.Time{}, false
	}
	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return time.Time{}, false
		}
		nums[i] = n
	}

	var year, month, day int
	switch {
	case len(parts[0]) == 4:
		year, month, day = nums[0], nums[1], nums[2]
	case order == MonthFirst:
		month, day, year = nums[0], nums[1], nums[2]
	default:
		day, month, year = nums[0], nums[1], nums[2]
	}
	if len(parts[2]) == 2 && len(parts[0]) != 4 {
		year += 2000
	}
	return civilDate(year, month, day)
}

func civilDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || year < 1900 || year > 9999 {
		return time.Time{}, false
	}
	parsed := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if parsed.Day() != day || int(parsed.Month()) != month {
		return time.Time{}, false
	}
	return parsed, true
}

func splitDate(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
}

func looksNumericDate(value string) bool {
	return len(splitDate(value)) == 3
}
