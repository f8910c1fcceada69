package reconciliation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ingest "adjustment-calculator/internal/ingest/domain"
)

// Filter restricts slots by month, year and a single date. Zero fields are unset.
type Filter struct {
	Month int
	Year  int
	Date  time.Time
}

// ParseFilter reads user-entered filter values; empty strings leave a field unset.
// Dates are read day-first (dd/mm/yyyy) with the same formats the normalizer accepts.
func ParseFilter(month, year, date string) (Filter, error) {
	var f Filter
	if v := strings.TrimSpace(month); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return Filter{}, &FilterError{Field: "month", Value: month, Reason: "expected 1-12"}
		}
		f.Month = m
	}
	if v := strings.TrimSpace(year); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1900 || y > 9999 {
			return Filter{}, &FilterError{Field: "year", Value: year, Reason: "expected a four digit year"}
		}
		f.Year = y
	}
	if v := strings.TrimSpace(date); v != "" {
		d, ok := ingest.ParseDate(v, ingest.DayFirst)
		if !ok {
			return Filter{}, &FilterError{Field: "date", Value: date, Reason: "expected dd/mm/yyyy"}
		}
		f.Date = d
	}
	return f, nil
}

// Active reports whether any field is set.
func (f Filter) Active() bool {
	return f.Month != 0 || f.Year != 0 || !f.Date.IsZero()
}

// HasPeriod reports whether both month and year are set.
func (f Filter) HasPeriod() bool {
	return f.Month != 0 && f.Year != 0
}

// MonthRange returns the first and last day of the filtered month.
func (f Filter) MonthRange() (time.Time, time.Time, bool) {
	if !f.HasPeriod() {
		return time.Time{}, time.Time{}, false
	}
	first := time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1), true
}

// Contains reports whether a calendar day passes the filter.
func (f Filter) Contains(day time.Time) bool {
	if f.Year != 0 && day.Year() != f.Year {
		return false
	}
	if f.Month != 0 && int(day.Month()) != f.Month {
		return false
	}
	if !f.Date.IsZero() {
		y, m, d := f.Date.Date()
		dy, dm, dd := day.Date()
		if y != dy || m != dm || d != dd {
			return false
		}
	}
	return true
}

func (f Filter) String() string {
	var parts []string
	if f.HasPeriod() {
		parts = append(parts, fmt.Sprintf("%02d/%d", f.Month, f.Year))
	} else if f.Month != 0 {
		parts = append(parts, fmt.Sprintf("month %02d", f.Month))
	} else if f.Year != 0 {
		parts = append(parts, fmt.Sprintf("year %d", f.Year))
	}
	if !f.Date.IsZero() {
		parts = append(parts, f.Date.Format(ingest.DisplayDateLayout))
	}
	if len(parts) == 0 {
		return "all dates"
	}
	return strings.Join(parts, " ")
}
