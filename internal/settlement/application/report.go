package application

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	statistic "adjustment-calculator/internal/analytics/domain/statistic"
	ingest "adjustment-calculator/internal/ingest/domain"
	"adjustment-calculator/internal/observability/metrics"
	reconciliation "adjustment-calculator/internal/reconciliation/domain"
	settlement "adjustment-calculator/internal/settlement/domain"
	tariff "adjustment-calculator/internal/tariff/domain"
)

// Warning codes.
const (
	WarnCoercedCells     = "coerced_cells"
	WarnDroppedRows      = "dropped_rows"
	WarnUnknownTimes     = "unknown_times"
	WarnMissingSlots     = "missing_slots"
	WarnTodayFallback    = "today_fallback"
	WarnBeforeAllWindows = "before_all_windows"
	WarnNoSurcharge      = "no_additional_surcharge"
)

// Warning is a data-quality finding that did not stop the run.
type Warning struct {
	Code    string            `json:"code"`
	Source  ingest.SourceType `json:"source,omitempty"`
	File    string            `json:"file,omitempty"`
	Count   int               `json:"count,omitempty"`
	Message string            `json:"message"`
}

// Period is the billing period of a report.
type Period struct {
	Month        int    `json:"month,omitempty"`
	Year         int    `json:"year,omitempty"`
	Label        string `json:"label"`
	AutoDetected bool   `json:"auto_detected"`
}

// EnergySummary is the energy disclosure block of a statement.
type EnergySummary struct {
	IEXInjectionKWh  float64 `json:"iex_injection_kwh"`
	CPPInjectionKWh  float64 `json:"cpp_injection_kwh"`
	InjectionKWh     float64 `json:"injection_kwh"`
	IEXAfterLossKWh  float64 `json:"iex_after_loss_kwh"`
	CPPAfterLossKWh  float64 `json:"cpp_after_loss_kwh"`
	AfterLossKWh     float64 `json:"after_loss_kwh"`
	LossKWh          float64 `json:"loss_kwh"`
	ConsumptionKWh   float64 `json:"consumption_kwh"`
	IEXAdjustmentKWh float64 `json:"iex_adjustment_kwh"`
	CPPAdjustmentKWh float64 `json:"cpp_adjustment_kwh"`
	IEXExcessKWh     float64 `json:"iex_excess_kwh"`
	CPPExcessKWh     float64 `json:"cpp_excess_kwh"`
	TotalExcessKWh   float64 `json:"total_excess_kwh"`
	PeakExcessKWh    float64 `json:"peak_excess_kwh"`
	OffPeakExcessKWh float64 `json:"offpeak_excess_kwh"`
	DeficitKWh       float64 `json:"deficit_kwh"`
}

// TODLine is the excess of one TOD category.
type TODLine struct {
	Category    reconciliation.Category `json:"category"`
	Description string                  `json:"description"`
	ExcessKWh   float64                 `json:"excess_kwh"`
}

// MissingCounts counts slots absent from each source.
type MissingCounts struct {
	IEX         int `json:"iex"`
	CPP         int `json:"cpp"`
	Consumption int `json:"consumption"`
}

// Report is the complete result of one run. Every figure a statement prints
// is a field here.
type Report struct {
	RunID       string      `json:"run_id"`
	GeneratedAt time.Time   `json:"generated_at"`
	Tier        tariff.Tier `json:"tier"`
	Period      Period      `json:"period"`
	Filter      string      `json:"filter"`

	IEXEnabled            bool    `json:"iex_enabled"`
	CPPEnabled            bool    `json:"cpp_enabled"`
	IEXLossPct            float64 `json:"iex_loss_pct"`
	CPPLossPct            float64 `json:"cpp_loss_pct"`
	WheelingLossPct       float64 `json:"wheeling_loss_pct"`
	ConsumptionMultiplier float64 `json:"consumption_multiplier"`

	Tariff    tariff.RateResolution      `json:"tariff"`
	Surcharge tariff.SurchargeResolution `json:"additional_surcharge"`

	Slots          []reconciliation.Slot `json:"slots"`
	Days           []statistic.DayTotal  `json:"days"`
	AvailableDates []string              `json:"available_dates"`
	Missing        MissingCounts         `json:"missing"`
	Energy         EnergySummary         `json:"energy"`
	TOD            []TODLine             `json:"tod"`

	Settlement settlement.Result `json:"settlement"`
	Steps      []settlement.Step `json:"steps"`
	Warnings   []Warning         `json:"warnings"`
}

// ExcessSlots is the excess-only view of the slot table.
func (r *Report) ExcessSlots() []reconciliation.Slot {
	return reconciliation.ExcessOnly(r.Slots)
}

func (r *Report) warn(logger zerolog.Logger, w Warning) {
	r.Warnings = append(r.Warnings, w)
	event := logger.Warn().Str("code", w.Code)
	if w.Source != "" {
		event = event.Str("source", string(w.Source))
	}
	if w.File != "" {
		event = event.Str("file", w.File)
	}
	if w.Count > 0 {
		event = event.Int("count", w.Count)
	}
	event.Msg(w.Message)
}

func (r *Report) addBatchWarnings(logger zerolog.Logger, batch *ingest.Batch) {
	metrics.AddCoercedCells(string(batch.Source), batch.CoercedCells)
	for _, f := range batch.Files {
		if f.CoercedCells > 0 {
			r.warn(logger, Warning{
				Code: WarnCoercedCells, Source: batch.Source, File: f.Name, Count: f.CoercedCells,
				Message: fmt.Sprintf("%d non-numeric energy values in %s were read as 0", f.CoercedCells, f.Name),
			})
		}
		if f.DroppedRows > 0 {
			r.warn(logger, Warning{
				Code: WarnDroppedRows, Source: batch.Source, File: f.Name, Count: f.DroppedRows,
				Message: fmt.Sprintf("%d rows in %s had an unreadable date and were skipped", f.DroppedRows, f.Name),
			})
		}
		if f.UnknownTimes > 0 {
			r.warn(logger, Warning{
				Code: WarnUnknownTimes, Source: batch.Source, File: f.Name, Count: f.UnknownTimes,
				Message: fmt.Sprintf("%d rows in %s had an unreadable time and were classified Unknown", f.UnknownTimes, f.Name),
			})
		}
	}
}

func (r *Report) applyTable(logger zerolog.Logger, table *reconciliation.Table) {
	r.Slots = table.Slots
	r.Filter = table.Filter.String()
	r.IEXLossPct = table.IEXLossPct
	r.CPPLossPct = table.CPPLossPct
	r.AvailableDates = table.AvailableDates
	r.Missing = MissingCounts{IEX: table.MissingIEX, CPP: table.MissingCPP, Consumption: table.MissingConsumption}

	for _, m := range []struct {
		source ingest.SourceType
		count  int
	}{
		{ingest.SourceIEX, table.MissingIEX},
		{ingest.SourceCPP, table.MissingCPP},
		{ingest.SourceConsumption, table.MissingConsumption},
	} {
		if m.count > 0 {
			r.warn(logger, Warning{
				Code: WarnMissingSlots, Source: m.source, Count: m.count,
				Message: fmt.Sprintf("%d slots have no %s data and were treated as 0", m.count, m.source),
			})
		}
	}
}

func (r *Report) addTariffWarnings(logger zerolog.Logger) {
	if r.Tariff.TodayFallback {
		r.warn(logger, Warning{
			Code:    WarnTodayFallback,
			Message: fmt.Sprintf("no billing month selected; rates resolved for %s (%s)", r.Tariff.ReferenceDate.Format(ingest.DisplayDateLayout), r.Tariff.Window.Label),
		})
	}
	if r.Tariff.BeforeAllWindows {
		r.warn(logger, Warning{
			Code:    WarnBeforeAllWindows,
			Message: fmt.Sprintf("billing date precedes every rate window; earliest window %s used", r.Tariff.Window.Label),
		})
	}
	if r.Surcharge.Selected && r.Surcharge.Window == nil {
		r.warn(logger, Warning{Code: WarnNoSurcharge, Message: r.Surcharge.Note})
	}
}

func newEnergySummary(t reconciliation.Totals) EnergySummary {
	return EnergySummary{
		IEXInjectionKWh:  t.IEXBeforeLossKWh,
		CPPInjectionKWh:  t.CPPBeforeLossKWh,
		InjectionKWh:     t.InjectionKWh(),
		IEXAfterLossKWh:  t.IEXAfterLossKWh,
		CPPAfterLossKWh:  t.CPPAfterLossKWh,
		AfterLossKWh:     t.AfterLossKWh(),
		LossKWh:          t.LossKWh(),
		ConsumptionKWh:   t.ConsumptionKWh,
		IEXAdjustmentKWh: t.IEXAdjustmentKWh,
		CPPAdjustmentKWh: t.CPPAdjustmentKWh,
		IEXExcessKWh:     t.IEXExcessKWh,
		CPPExcessKWh:     t.CPPExcessKWh,
		TotalExcessKWh:   t.TotalExcessKWh,
		PeakExcessKWh:    t.PeakExcessKWh(),
		OffPeakExcessKWh: t.OffPeakExcessKWh(),
		DeficitKWh:       t.DeficitKWh,
	}
}

func newTODBreakdown(t reconciliation.Totals) []TODLine {
	lines := make([]TODLine, 0, len(reconciliation.Categories))
	for _, c := range reconciliation.Categories {
		lines = append(lines, TODLine{Category: c, Description: c.Description(), ExcessKWh: t.ExcessByCategory[c]})
	}
	return lines
}
