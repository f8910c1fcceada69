package application

import (
	"context"
	"errors"
	"math"
	"strconv"
	"testing"
	"time"

	ingest "adjustment-calculator/internal/ingest/domain"
	tariff "adjustment-calculator/internal/tariff/domain"
	"adjustment-calculator/internal/tariff/infrastructure/ratetable"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func pct(v float64) *float64 { return &v }

type cellRow struct {
	date   string
	slot   int
	energy float64
}

func sourceFile(name string, rows ...cellRow) ingest.SourceFile {
	file := ingest.SourceFile{Name: name}
	for _, r := range rows {
		file.Rows = append(file.Rows, ingest.RawRow{r.date, ingest.SlotRangeAt(r.slot), strconv.FormatFloat(r.energy, 'f', -1, 64)})
	}
	return file
}

func newTestService(t *testing.T, today time.Time) *AdjustmentService {
	t.Helper()
	tables, err := ratetable.Default()
	if err != nil {
		t.Fatalf("default tables: %v", err)
	}
	resolver, err := tariff.NewResolver(tables.Rates, tables.Surcharges, tariff.WithClock(fixedClock{now: today}))
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	svc, err := NewAdjustmentService(resolver,
		WithClock(fixedClock{now: today}),
		WithRunIDs(func() string { return "run-1" }),
	)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return svc
}

func julyRequest() Request {
	return Request{
		IEXFiles: []ingest.SourceFile{sourceFile("iex.xlsx",
			cellRow{"01/07/2023", 0, 0.1},
			cellRow{"01/07/2023", 72, 0.2},
		)},
		CPPFiles: []ingest.SourceFile{sourceFile("cpp.xlsx",
			cellRow{"01/07/2023", 0, 0.04},
		)},
		ConsumptionFiles: []ingest.SourceFile{sourceFile("consumption.xlsx",
			cellRow{"01/07/2023", 0, 20},
			cellRow{"01/07/2023", 72, 10},
		)},
		EnableIEX:  true,
		EnableCPP:  true,
		IEXLossPct: pct(0),
		CPPLossPct: pct(0),
		Tier:       "I",
		Month:      "7",
		Year:       "2023",
	}
}

func TestRun_EndToEnd(t *testing.T) {
	svc := newTestService(t, time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC))

	report, err := svc.Run(context.Background(), julyRequest())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.RunID != "run-1" || report.Period.Label != "July 2023" {
		t.Fatalf("unexpected report header %q %q", report.RunID, report.Period.Label)
	}
	if len(report.Slots) != 2 || len(report.ExcessSlots()) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(report.Slots))
	}
	if len(report.Days) != 31 || !almostEqual(report.Days[0].TotalExcessKWh, 55) {
		t.Fatalf("expected 31 day rows with 55 kWh on day one, got %d", len(report.Days))
	}
	e := report.Energy
	if !almostEqual(e.TotalExcessKWh, 55) || !almostEqual(e.IEXExcessKWh, 45) || !almostEqual(e.PeakExcessKWh, 40) || !almostEqual(e.OffPeakExcessKWh, 15) {
		t.Fatalf("unexpected energy summary %+v", e)
	}
	if report.Missing.CPP != 1 || report.Missing.IEX != 0 {
		t.Fatalf("unexpected missing counts %+v", report.Missing)
	}
	if report.Tariff.Window.Label != "Rates effective 01.07.2023 (Tier I published, other tiers placeholder)" {
		t.Fatalf("unexpected tariff window %q", report.Tariff.Window.Label)
	}
	if report.Surcharge.Rate != 0 || report.Surcharge.Note == "" {
		t.Fatalf("expected zero surcharge with a note, got %+v", report.Surcharge)
	}

	s := report.Settlement
	if !almostEqual(s.BaseAmount, 398.75) || !almostEqual(s.CrossSubsidySurcharge, 86.4) {
		t.Fatalf("unexpected amounts %+v", s)
	}
	if !almostEqual(s.Wheeling.Charges, 55.86152) || !almostEqual(s.FinalAmount, 352.655355) || s.FinalAmountRounded != 353 {
		t.Fatalf("unexpected final %v / %v", s.FinalAmount, s.FinalAmountRounded)
	}

	codes := map[string]bool{}
	for _, w := range report.Warnings {
		codes[w.Code] = true
	}
	if !codes[WarnMissingSlots] || !codes[WarnNoSurcharge] || codes[WarnTodayFallback] {
		t.Fatalf("unexpected warnings %+v", report.Warnings)
	}
}

func endLabelledMonth(name string, from time.Time, energy string) ingest.SourceFile {
	file := ingest.SourceFile{Name: name}
	to := from.AddDate(0, 1, 0)
	for at := from.Add(ingest.SlotMinutes * time.Minute); !at.After(to); at = at.Add(ingest.SlotMinutes * time.Minute) {
		file.Rows = append(file.Rows, ingest.RawRow{at.Format("02/01/2006"), at.Format("15:04"), energy})
	}
	return file
}

func TestRun_EndLabelledMonthKeepsLastSlot(t *testing.T) {
	svc := newTestService(t, time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC))
	july := time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC)

	report, err := svc.Run(context.Background(), Request{
		IEXFiles:         []ingest.SourceFile{endLabelledMonth("iex.xlsx", july, "1")},
		ConsumptionFiles: []ingest.SourceFile{endLabelledMonth("consumption.xlsx", july, "100")},
		EnableIEX:        true,
		IEXLossPct:       pct(0),
		Tier:             "I",
		Month:            "7",
		Year:             "2023",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Slots) != 31*ingest.SlotsPerDay {
		t.Fatalf("expected %d slots, got %d", 31*ingest.SlotsPerDay, len(report.Slots))
	}
	for _, day := range report.Days {
		if day.Slots != ingest.SlotsPerDay {
			t.Fatalf("expected %d slots on %s, got %d", ingest.SlotsPerDay, day.Day.Format(ingest.DateLayout), day.Slots)
		}
	}
	if !almostEqual(report.Energy.IEXInjectionKWh, 744000) {
		t.Fatalf("expected injection 744000, got %v", report.Energy.IEXInjectionKWh)
	}
	last := report.Slots[len(report.Slots)-1]
	if last.Key.Date != "2023-07-31" || last.Key.TimeRange != "23:45 - 00:00" {
		t.Fatalf("expected last slot 2023-07-31 23:45 - 00:00, got %+v", last.Key)
	}
}

func TestRun_AppliesAdditionalSurchargeWindow(t *testing.T) {
	svc := newTestService(t, time.Now())
	req := julyRequest()
	for _, files := range [][]ingest.SourceFile{req.IEXFiles, req.CPPFiles, req.ConsumptionFiles} {
		for i := range files[0].Rows {
			files[0].Rows[i][0] = "15/01/2025"
		}
	}
	req.Month, req.Year = "1", "2025"

	report, err := svc.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Surcharge.Rate != 0.54 {
		t.Fatalf("expected 0.54 surcharge, got %+v", report.Surcharge)
	}
	if !almostEqual(report.Settlement.AdditionalSurcharge, 45*0.54) {
		t.Fatalf("expected surcharge on IEX excess, got %v", report.Settlement.AdditionalSurcharge)
	}
}

func TestRun_TodayFallbackWarns(t *testing.T) {
	svc := newTestService(t, time.Date(2024, time.August, 20, 0, 0, 0, 0, time.UTC))
	req := julyRequest()
	req.Month, req.Year = "", ""

	report, err := svc.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Tariff.TodayFallback || report.Tariff.Window.Label != "Placeholder rates effective 01.07.2024" {
		t.Fatalf("expected today's window, got %+v", report.Tariff)
	}
	if report.Surcharge.Selected || report.Surcharge.Note != tariff.NotSelectedLabel {
		t.Fatalf("expected not selected surcharge, got %+v", report.Surcharge)
	}
	found := false
	for _, w := range report.Warnings {
		found = found || w.Code == WarnTodayFallback
	}
	if !found {
		t.Fatalf("expected today fallback warning")
	}
	if len(report.Days) != 1 {
		t.Fatalf("expected data range rollup of one day, got %d", len(report.Days))
	}
}

func TestRun_AutoDetectPeriod(t *testing.T) {
	svc := newTestService(t, time.Now())
	req := julyRequest()
	req.Month, req.Year = "", ""
	req.AutoDetectPeriod = true

	report, err := svc.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Period.AutoDetected || report.Period.Month != 7 || report.Period.Year != 2023 {
		t.Fatalf("expected detected July 2023, got %+v", report.Period)
	}
	if report.Tariff.TodayFallback || len(report.Days) != 31 {
		t.Fatalf("expected detected period to drive lookup and rollup")
	}
}

func TestRun_WheelingLossFollowsIEX(t *testing.T) {
	svc := newTestService(t, time.Now())
	req := julyRequest()
	req.IEXLossPct = pct(10)
	req.CPPLossPct = pct(4)

	report, err := svc.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.WheelingLossPct != 10 {
		t.Fatalf("expected IEX loss for wheeling, got %v", report.WheelingLossPct)
	}

	req.EnableIEX = false
	report, err = svc.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run cpp only: %v", err)
	}
	if report.WheelingLossPct != 4 {
		t.Fatalf("expected CPP loss for wheeling, got %v", report.WheelingLossPct)
	}

	req.WheelingLossPct = pct(7)
	report, err = svc.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("run override: %v", err)
	}
	if report.WheelingLossPct != 7 {
		t.Fatalf("expected override, got %v", report.WheelingLossPct)
	}
}

func TestRun_ValidationErrors(t *testing.T) {
	svc := newTestService(t, time.Now())
	cases := []struct {
		name  string
		edit  func(*Request)
		code  string
		field string
	}{
		{"no source", func(r *Request) { r.EnableIEX, r.EnableCPP = false, false }, CodeNoSourceEnabled, ""},
		{"missing iex files", func(r *Request) { r.IEXFiles = nil }, CodeMissingGenerationFiles, "iex_files"},
		{"missing consumption", func(r *Request) { r.ConsumptionFiles = nil }, CodeMissingConsumptionFiles, "consumption_files"},
		{"missing loss", func(r *Request) { r.CPPLossPct = nil }, CodeMissingLoss, "cpp_loss_pct"},
		{"loss out of range", func(r *Request) { r.IEXLossPct = pct(120) }, CodeInvalidLoss, "iex_loss_pct"},
		{"bad multiplier", func(r *Request) { r.ConsumptionMultiplier = -2 }, CodeInvalidMultiplier, "multiplier"},
		{"bad tier", func(r *Request) { r.Tier = "IV" }, CodeInvalidTier, "tier"},
		{"bad month", func(r *Request) { r.Month = "13" }, CodeInvalidFilter, "month"},
		{"no rows", func(r *Request) { r.CPPFiles = []ingest.SourceFile{{Name: "empty.csv"}} }, CodeInvalidInput, "cpp_files"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := julyRequest()
			tc.edit(&req)
			_, err := svc.Run(context.Background(), req)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if ve.Code != tc.code || ve.Field != tc.field {
				t.Fatalf("expected %s/%s, got %s/%s", tc.code, tc.field, ve.Code, ve.Field)
			}
		})
	}
}

func TestRun_EmptyAfterFilterListsDates(t *testing.T) {
	svc := newTestService(t, time.Now())
	req := julyRequest()
	req.Month = "8"

	_, err := svc.Run(context.Background(), req)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Code != CodeEmptyAfterFilter {
		t.Fatalf("expected empty_after_filter, got %v", err)
	}
	if ve.Field != "iex_files" || len(ve.AvailableDates) != 1 || ve.AvailableDates[0] != "01/07/2023" {
		t.Fatalf("unexpected payload %+v", ve)
	}
	if len(ve.AvailableMonths) != 1 || ve.AvailableMonths[0] != "07/2023" {
		t.Fatalf("unexpected months %+v", ve.AvailableMonths)
	}
}

func TestRun_Idempotent(t *testing.T) {
	svc := newTestService(t, time.Now())
	first, err := svc.Run(context.Background(), julyRequest())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := svc.Run(context.Background(), julyRequest())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.Settlement != second.Settlement {
		t.Fatalf("expected identical settlements")
	}
}

func TestRun_CancelledContext(t *testing.T) {
	svc := newTestService(t, time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Run(ctx, julyRequest()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestParseHelpers(t *testing.T) {
	loss, err := ParseLoss("iex_loss_pct", " 4.5% ")
	if err != nil || loss == nil || *loss != 4.5 {
		t.Fatalf("expected 4.5, got %v %v", loss, err)
	}
	if loss, err := ParseLoss("iex_loss_pct", ""); loss != nil || err != nil {
		t.Fatalf("expected nil loss for empty text")
	}
	if _, err := ParseLoss("iex_loss_pct", "abc"); !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if m, err := ParseMultiplier(""); err != nil || m != 1 {
		t.Fatalf("expected default multiplier 1, got %v %v", m, err)
	}
	if _, err := ParseMultiplier("0"); !IsValidationError(err) {
		t.Fatalf("expected invalid multiplier")
	}
	if b, err := ParseBool("enable_iex", "on", false); err != nil || !b {
		t.Fatalf("expected true for on")
	}
	if b, _ := ParseBool("enable_iex", "", true); !b {
		t.Fatalf("expected default")
	}
}
