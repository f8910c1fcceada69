package statistic

import (
	"time"

	ingest "adjustment-calculator/internal/ingest/domain"
	reconciliation "adjustment-calculator/internal/reconciliation/domain"
)

// DayTotal is one calendar day of the reconciled table.
type DayTotal struct {
	Day              time.Time `json:"day"`
	AfterLossKWh     float64   `json:"after_loss_kwh"`
	IEXAfterLossKWh  float64   `json:"iex_after_loss_kwh"`
	CPPAfterLossKWh  float64   `json:"cpp_after_loss_kwh"`
	ConsumptionKWh   float64   `json:"consumption_kwh"`
	IEXExcessKWh     float64   `json:"iex_excess_kwh"`
	CPPExcessKWh     float64   `json:"cpp_excess_kwh"`
	TotalExcessKWh   float64   `json:"total_excess_kwh"`
	PeakExcessKWh    float64   `json:"peak_excess_kwh"`
	OffPeakExcessKWh float64   `json:"offpeak_excess_kwh"`
	Slots            int       `json:"slots"`
	// Complete is false when the day has fewer slots than a full day.
	Complete bool `json:"complete"`
}

// DailyRollupService rolls slots up to calendar days.
type DailyRollupService struct {
	expectedSlots int
}

// NewDailyRollupService constructs a DailyRollupService. expectedSlots <= 0 means a full day of 15-minute slots.
func NewDailyRollupService(expectedSlots int) *DailyRollupService {
	if expectedSlots <= 0 {
		expectedSlots = ingest.SlotsPerDay
	}
	return &DailyRollupService{expectedSlots: expectedSlots}
}

// Rollup groups slots by day and reindexes over every day of the given month,
// so days without data appear as zero rows. With month or year unset the range
// runs from the first to the last day present in the slots.
func (s *DailyRollupService) Rollup(slots []reconciliation.Slot, month, year int) ([]DayTotal, error) {
	first, last, err := s.dayRange(slots, month, year)
	if err != nil {
		return nil, err
	}
	if first.IsZero() {
		return []DayTotal{}, nil
	}

	byDay := make(map[time.Time]*DayTotal)
	for _, slot := range slots {
		day := truncateToDay(slot.Day)
		if day.Before(first) || day.After(last) {
			continue
		}
		total, ok := byDay[day]
		if !ok {
			total = &DayTotal{Day: day}
			byDay[day] = total
		}
		total.IEXAfterLossKWh += slot.IEXAfterLossKWh
		total.CPPAfterLossKWh += slot.CPPAfterLossKWh
		total.AfterLossKWh += slot.AfterLossKWh()
		total.ConsumptionKWh += slot.ConsumptionKWh
		total.IEXExcessKWh += slot.IEXExcessKWh
		total.CPPExcessKWh += slot.CPPExcessKWh
		total.TotalExcessKWh += slot.TotalExcessKWh
		switch {
		case slot.TOD.IsPeak():
			total.PeakExcessKWh += slot.TotalExcessKWh
		case slot.TOD.IsOffPeak():
			total.OffPeakExcessKWh += slot.TotalExcessKWh
		}
		total.Slots++
	}

	out := make([]DayTotal, 0, int(last.Sub(first).Hours()/24)+1)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		total := DayTotal{Day: day}
		if t, ok := byDay[day]; ok {
			total = *t
		}
		total.Complete = total.Slots >= s.expectedSlots
		out = append(out, total)
	}
	return out, nil
}

func (s *DailyRollupService) dayRange(slots []reconciliation.Slot, month, year int) (time.Time, time.Time, error) {
	if month != 0 || year != 0 {
		if month < 1 || month > 12 || year < 1900 || year > 9999 {
			return time.Time{}, time.Time{}, ErrInvalidPeriod
		}
		first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		return first, first.AddDate(0, 0, DaysInMonth(year, time.Month(month))-1), nil
	}
	var first, last time.Time
	for _, slot := range slots {
		day := truncateToDay(slot.Day)
		if first.IsZero() || day.Before(first) {
			first = day
		}
		if last.IsZero() || day.After(last) {
			last = day
		}
	}
	return first, last, nil
}

// DaysInMonth is the calendar length of a month, leap years included.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Sum adds up day rows.
func Sum(days []DayTotal) DayTotal {
	var sum DayTotal
	for _, d := range days {
		sum.AfterLossKWh += d.AfterLossKWh
		sum.IEXAfterLossKWh += d.IEXAfterLossKWh
		sum.CPPAfterLossKWh += d.CPPAfterLossKWh
		sum.ConsumptionKWh += d.ConsumptionKWh
		sum.IEXExcessKWh += d.IEXExcessKWh
		sum.CPPExcessKWh += d.CPPExcessKWh
		sum.TotalExcessKWh += d.TotalExcessKWh
		sum.PeakExcessKWh += d.PeakExcessKWh
		sum.OffPeakExcessKWh += d.OffPeakExcessKWh
		sum.Slots += d.Slots
	}
	return sum
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
