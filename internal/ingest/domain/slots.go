package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// SlotMinutes is the width of one settlement slot.
	SlotMinutes = 15
	// SlotsPerDay is the number of slots in a complete day.
	SlotsPerDay = 24 * 60 / SlotMinutes

	minutesPerDay = 24 * 60
)

var (
	clockPattern = `(\d{1,2}):(\d{2})(?::(\d{2})(?:\.\d+)?)?`
	rangeRe      = regexp.MustCompile(`^` + clockPattern + `\s*(?:-|–|to)\s*` + clockPattern + `$`)
	instantRe    = regexp.MustCompile(`(?:^|[\sT])` + clockPattern + `(?:\s*([AaPp][Mm]))?(?:\s*(?:Z|[+-]\d{2}:?\d{2}))?\s*$`)
)

// SlotTime is a canonical slot label plus the day it belongs to
// relative to the row date.
type SlotTime struct {
	Range string
	// PreviousDay is set for an instant of 00:00, which closes the last slot
	// of the day before the row date. 24:00 stays on the row date.
	PreviousDay bool
}

// ParseSlotTime canonicalizes a time cell into "HH:MM - HH:MM".
// A single instant is the slot end, so 00:15 becomes "00:00 - 00:15" and
// 00:00 becomes "23:45 - 00:00" of the previous day. Unparseable text is
// returned trimmed with ok=false.
func ParseSlotTime(value string) (SlotTime, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return SlotTime{}, false
	}

	if m := rangeRe.FindStringSubmatch(value); m != nil {
		start, ok := clockMinutes(m[1], m[2], "")
		if !ok {
			return SlotTime{Range: value}, false
		}
		end, ok := clockMinutes(m[4], m[5], "")
		if !ok {
			return SlotTime{Range: value}, false
		}
		return SlotTime{Range: FormatSlotRange(start, end)}, true
	}

	m := instantRe.FindStringSubmatch(value)
	if m == nil {
		return SlotTime{Range: value}, false
	}
	end, ok := clockMinutes(m[1], m[2], m[4])
	if !ok {
		return SlotTime{Range: value}, false
	}
	start := (end - SlotMinutes + minutesPerDay) % minutesPerDay
	return SlotTime{Range: FormatSlotRange(start, end), PreviousDay: end == 0}, true
}

// FormatSlotRange renders minute offsets as a slot label; 24:00 wraps to 00:00.
func FormatSlotRange(startMinutes, endMinutes int) string {
	return formatClock(startMinutes) + " - " + formatClock(endMinutes)
}

// SlotRangeAt returns the canonical label of the nth slot of a day.
func SlotRangeAt(index int) string {
	start := index * SlotMinutes
	return FormatSlotRange(start, start+SlotMinutes)
}

// StartMinutes parses the start of a slot label. Unparseable labels return 0, false.
func StartMinutes(timeRange string) (int, bool) {
	start, _, _ := strings.Cut(timeRange, "-")
	hour, minute, ok := strings.Cut(strings.TrimSpace(start), ":")
	if !ok {
		return 0, false
	}
	minutes, valid := clockMinutes(hour, minute, "")
	if !valid || minutes >= minutesPerDay {
		return 0, false
	}
	return minutes, true
}

func clockMinutes(hourText, minuteText, meridiem string) (int, bool) {
	hour, err := strconv.Atoi(hourText)
	if err != nil {
		return 0, false
	}
	minute, err := strconv.Atoi(minuteText)
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	switch strings.ToLower(meridiem) {
	case "am":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour != 12 {
			hour += 12
		}
	}
	if hour < 0 || hour > 24 || (hour == 24 && minute != 0) {
		return 0, false
	}
	return hour*60 + minute, true
}

func formatClock(minutes int) string {
	minutes %= minutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
