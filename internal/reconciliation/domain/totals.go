package reconciliation

import (
	ingest "adjustment-calculator/internal/ingest/domain"
)

// Totals sums a slot table.
type Totals struct {
	ConsumptionKWh   float64              `json:"consumption_kwh"`
	IEXBeforeLossKWh float64              `json:"iex_before_loss_kwh"`
	IEXAfterLossKWh  float64              `json:"iex_after_loss_kwh"`
	CPPBeforeLossKWh float64              `json:"cpp_before_loss_kwh"`
	CPPAfterLossKWh  float64              `json:"cpp_after_loss_kwh"`
	IEXAdjustmentKWh float64              `json:"iex_adjustment_kwh"`
	CPPAdjustmentKWh float64              `json:"cpp_adjustment_kwh"`
	IEXExcessKWh     float64              `json:"iex_excess_kwh"`
	CPPExcessKWh     float64              `json:"cpp_excess_kwh"`
	TotalExcessKWh   float64              `json:"total_excess_kwh"`
	DeficitKWh       float64              `json:"deficit_kwh"`
	ExcessByCategory map[Category]float64 `json:"excess_by_category"`
}

// Summarize adds up every slot.
func Summarize(slots []Slot) Totals {
	t := Totals{ExcessByCategory: make(map[Category]float64, len(Categories))}
	for _, c := range Categories {
		t.ExcessByCategory[c] = 0
	}
	for _, s := range slots {
		t.ConsumptionKWh += s.ConsumptionKWh
		t.IEXBeforeLossKWh += s.IEXBeforeLossKWh
		t.IEXAfterLossKWh += s.IEXAfterLossKWh
		t.CPPBeforeLossKWh += s.CPPBeforeLossKWh
		t.CPPAfterLossKWh += s.CPPAfterLossKWh
		t.IEXAdjustmentKWh += s.IEXAdjustmentKWh
		t.CPPAdjustmentKWh += s.CPPAdjustmentKWh
		t.IEXExcessKWh += s.IEXExcessKWh
		t.CPPExcessKWh += s.CPPExcessKWh
		t.TotalExcessKWh += s.TotalExcessKWh
		t.DeficitKWh += s.DeficitKWh
		t.ExcessByCategory[s.TOD] += s.TotalExcessKWh
	}
	return t
}

// PeakExcessKWh is the excess in C1 and C2.
func (t Totals) PeakExcessKWh() float64 {
	return t.ExcessByCategory[CategoryC1] + t.ExcessByCategory[CategoryC2]
}

// OffPeakExcessKWh is the excess in C5.
func (t Totals) OffPeakExcessKWh() float64 {
	return t.ExcessByCategory[CategoryC5]
}

// InjectionKWh is generation before loss from both sources.
func (t Totals) InjectionKWh() float64 { return t.IEXBeforeLossKWh + t.CPPBeforeLossKWh }

// AfterLossKWh is generation after loss from both sources.
func (t Totals) AfterLossKWh() float64 { return t.IEXAfterLossKWh + t.CPPAfterLossKWh }

// LossKWh is the energy removed by T&D loss.
func (t Totals) LossKWh() float64 { return t.InjectionKWh() - t.AfterLossKWh() }

// Period is a billing month.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// DetectPeriod returns the most frequent month among the records of the first
// non-empty group. Ties go to the earliest month.
func DetectPeriod(groups ...[]ingest.Record) (Period, bool) {
	for _, records := range groups {
		if len(records) == 0 {
			continue
		}
		counts := make(map[Period]int)
		for _, rec := range records {
			counts[Period{Month: int(rec.Day.Month()), Year: rec.Day.Year()}]++
		}
		var best Period
		bestCount := 0
		for p, n := range counts {
			if n > bestCount || (n == bestCount && p.before(best)) {
				best, bestCount = p, n
			}
		}
		return best, true
	}
	return Period{}, false
}

func (p Period) before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}
