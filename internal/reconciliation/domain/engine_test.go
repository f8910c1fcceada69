package reconciliation

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	ingest "adjustment-calculator/internal/ingest/domain"
)

func record(source ingest.SourceType, day time.Time, slot int, kwh float64) ingest.Record {
	return ingest.Record{
		Key:       ingest.NewSlotKey(day, ingest.SlotRangeAt(slot)),
		Day:       day,
		Source:    source,
		EnergyKWh: kwh,
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fullMonth(source ingest.SourceType, year int, month time.Month, kwh float64) []ingest.Record {
	var out []ingest.Record
	for d := date(year, month, 1); d.Month() == month; d = d.AddDate(0, 0, 1) {
		for slot := 0; slot < ingest.SlotsPerDay; slot++ {
			out = append(out, record(source, d, slot, kwh))
		}
	}
	return out
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestReconcile_FullLeapMonthHasEverySlot(t *testing.T) {
	table, err := Reconcile(Input{
		IEX:         &Source{Records: fullMonth(ingest.SourceIEX, 2024, time.February, 10), LossPct: 5},
		Consumption: Source{Records: fullMonth(ingest.SourceConsumption, 2024, time.February, 8)},
		Filter:      Filter{Month: 2, Year: 2024},
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(table.Slots) != 29*96 {
		t.Fatalf("expected %d slots, got %d", 29*96, len(table.Slots))
	}
	first, last := table.Slots[0], table.Slots[len(table.Slots)-1]
	if first.Key.TimeRange != "00:00 - 00:15" || first.Key.Date != "2024-02-01" {
		t.Fatalf("unexpected first slot %v", first.Key)
	}
	if last.Key.TimeRange != "23:45 - 00:00" || last.Key.Date != "2024-02-29" {
		t.Fatalf("unexpected last slot %v", last.Key)
	}
	if !almostEqual(first.IEXAfterLossKWh, 9.5) || !almostEqual(first.IEXExcessKWh, 1.5) {
		t.Fatalf("expected after loss 9.5 and excess 1.5, got %+v", first)
	}
}

func TestReconcile_UnionKeepsSlotsMissingFromSources(t *testing.T) {
	d := date(2023, time.July, 1)
	table, err := Reconcile(Input{
		IEX:         &Source{Records: []ingest.Record{record(ingest.SourceIEX, d, 0, 100)}},
		CPP:         &Source{Records: []ingest.Record{record(ingest.SourceCPP, d, 2, 40)}},
		Consumption: Source{Records: []ingest.Record{record(ingest.SourceConsumption, d, 1, 30)}},
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(table.Slots) != 3 {
		t.Fatalf("expected 3 slots from the union, got %d", len(table.Slots))
	}
	if got := table.Slots[0].Missing; !got.CPP || !got.Consumption || got.IEX {
		t.Fatalf("unexpected missing flags for slot 0: %+v", got)
	}
	if got := table.Slots[1]; !got.Missing.IEX || !got.Missing.CPP || got.DeficitKWh != 30 {
		t.Fatalf("expected consumption-only slot with deficit 30, got %+v", got)
	}
	if table.Slots[2].CPPExcessKWh != 40 {
		t.Fatalf("expected CPP excess 40, got %v", table.Slots[2].CPPExcessKWh)
	}
	if table.MissingIEX != 2 || table.MissingCPP != 2 || table.MissingConsumption != 2 {
		t.Fatalf("unexpected missing counts %d %d %d", table.MissingIEX, table.MissingCPP, table.MissingConsumption)
	}
	if table.Slots[0].Missing.String() != "Missing in CPP, CONSUMPTION" {
		t.Fatalf("unexpected missing label %q", table.Slots[0].Missing.String())
	}
}

func TestReconcile_DuplicateRowsSum(t *testing.T) {
	d := date(2023, time.July, 1)
	table, err := Reconcile(Input{
		IEX: &Source{Records: []ingest.Record{
			record(ingest.SourceIEX, d, 4, 50),
			record(ingest.SourceIEX, d, 4, 25),
		}},
		Consumption: Source{Records: []ingest.Record{record(ingest.SourceConsumption, d, 4, 60)}},
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(table.Slots) != 1 || table.Slots[0].IEXBeforeLossKWh != 75 {
		t.Fatalf("expected summed 75 kWh, got %+v", table.Slots)
	}
	if table.Slots[0].IEXExcessKWh != 15 {
		t.Fatalf("expected excess 15, got %v", table.Slots[0].IEXExcessKWh)
	}
}

func TestReconcile_NettingInvariants(t *testing.T) {
	d := date(2023, time.July, 1)
	values := []struct{ cons, iex, cpp float64 }{
		{100, 150, 50}, {100, 80, 50}, {100, 0, 0}, {0, 30, 20}, {100, 100, 0}, {100, 40, 10},
	}
	var iex, cpp, cons []ingest.Record
	for i, v := range values {
		iex = append(iex, record(ingest.SourceIEX, d, i, v.iex))
		cpp = append(cpp, record(ingest.SourceCPP, d, i, v.cpp))
		cons = append(cons, record(ingest.SourceConsumption, d, i, v.cons))
	}
	table, err := Reconcile(Input{IEX: &Source{Records: iex}, CPP: &Source{Records: cpp}, Consumption: Source{Records: cons}})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	for _, s := range table.Slots {
		if !almostEqual(s.IEXExcessKWh+s.CPPExcessKWh, s.TotalExcessKWh) || s.TotalExcessKWh < 0 {
			t.Fatalf("excess split broken for %v: %+v", s.Key, s)
		}
		want := math.Max(0, s.ConsumptionKWh-math.Min(s.IEXAfterLossKWh, s.ConsumptionKWh))
		if !almostEqual(s.RemainingConsumptionKWh, want) {
			t.Fatalf("expected remaining %v, got %v", want, s.RemainingConsumptionKWh)
		}
	}
}

func TestReconcile_NettingOrderAttributesExcessToFirstSource(t *testing.T) {
	d := date(2023, time.July, 1)
	cons := []ingest.Record{
		record(ingest.SourceConsumption, d, 0, 100),
		record(ingest.SourceConsumption, d, 1, 100),
	}
	iexRecords := []ingest.Record{record(ingest.SourceIEX, d, 0, 150), record(ingest.SourceIEX, d, 1, 150)}
	cppRecords := []ingest.Record{record(ingest.SourceCPP, d, 0, 50), record(ingest.SourceCPP, d, 1, 0)}

	iexFirst, err := Reconcile(Input{IEX: &Source{Records: iexRecords}, CPP: &Source{Records: cppRecords}, Consumption: Source{Records: cons}})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	swapped, err := Reconcile(Input{IEX: &Source{Records: cppRecords}, CPP: &Source{Records: iexRecords}, Consumption: Source{Records: cons}})
	if err != nil {
		t.Fatalf("reconcile swapped: %v", err)
	}

	// Slot 0: IEX exceeds consumption and CPP is positive, so attribution depends on order.
	a, b := iexFirst.Slots[0], swapped.Slots[0]
	if a.IEXExcessKWh != 50 || a.CPPExcessKWh != 50 {
		t.Fatalf("expected 50/50 with IEX first, got %v/%v", a.IEXExcessKWh, a.CPPExcessKWh)
	}
	// In the swapped run the IEX data sits in the second position.
	if b.CPPExcessKWh != 100 || b.IEXExcessKWh != 0 {
		t.Fatalf("expected IEX data to carry 100 when netted second, got first=%v second=%v", b.IEXExcessKWh, b.CPPExcessKWh)
	}
	if a.TotalExcessKWh != b.TotalExcessKWh {
		t.Fatalf("expected total excess %v in both orders, got %v", a.TotalExcessKWh, b.TotalExcessKWh)
	}

	// Slot 1: CPP is zero, so both orders attribute identically.
	c, e := iexFirst.Slots[1], swapped.Slots[1]
	if c.IEXExcessKWh != e.CPPExcessKWh || c.CPPExcessKWh != e.IEXExcessKWh {
		t.Fatalf("expected order-independent attribution, got %+v vs %+v", c, e)
	}
}

func TestReconcile_SortsByStartMinutes(t *testing.T) {
	d := date(2023, time.July, 2)
	prev := date(2023, time.July, 1)
	cons := []ingest.Record{
		record(ingest.SourceConsumption, d, 40, 1),
		record(ingest.SourceConsumption, d, 36, 1),
		record(ingest.SourceConsumption, prev, 95, 1),
		record(ingest.SourceConsumption, d, 4, 1),
	}
	table, err := Reconcile(Input{IEX: &Source{}, Consumption: Source{Records: cons}})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	want := []string{"2023-07-01 23:45 - 00:00", "2023-07-02 01:00 - 01:15", "2023-07-02 09:00 - 09:15", "2023-07-02 10:00 - 10:15"}
	for i, s := range table.Slots {
		if s.Key.String() != want[i] {
			t.Fatalf("slot %d: expected %s, got %s", i, want[i], s.Key)
		}
	}
}

func TestReconcile_EmptyAfterFilterListsDates(t *testing.T) {
	cons := []ingest.Record{
		record(ingest.SourceConsumption, date(2023, time.July, 2), 0, 1),
		record(ingest.SourceConsumption, date(2023, time.July, 1), 0, 1),
	}
	_, err := Reconcile(Input{
		IEX:         &Source{Records: []ingest.Record{record(ingest.SourceIEX, date(2023, time.July, 1), 0, 1)}},
		Consumption: Source{Records: cons},
		Filter:      Filter{Month: 8, Year: 2023},
	})
	if !errors.Is(err, ErrEmptyAfterFilter) {
		t.Fatalf("expected ErrEmptyAfterFilter, got %v", err)
	}
	var empty *EmptyFilterError
	if !errors.As(err, &empty) {
		t.Fatalf("expected EmptyFilterError, got %T", err)
	}
	if empty.Source != ingest.SourceIEX {
		t.Fatalf("expected IEX to be reported first, got %s", empty.Source)
	}

	_, err = Reconcile(Input{
		IEX:         &Source{Records: []ingest.Record{record(ingest.SourceIEX, date(2023, time.August, 1), 0, 1)}},
		Consumption: Source{Records: cons},
		Filter:      Filter{Month: 8, Year: 2023},
	})
	if !errors.As(err, &empty) || empty.Source != ingest.SourceConsumption {
		t.Fatalf("expected consumption empty error, got %v", err)
	}
	if !reflect.DeepEqual(empty.AvailableDates, []string{"01/07/2023", "02/07/2023"}) {
		t.Fatalf("unexpected available dates %v", empty.AvailableDates)
	}
	if !reflect.DeepEqual(empty.AvailableMonths, []string{"07/2023"}) {
		t.Fatalf("unexpected available months %v", empty.AvailableMonths)
	}
}

func TestReconcile_SingleDateFilter(t *testing.T) {
	cons := append(
		fullMonth(ingest.SourceConsumption, 2023, time.July, 1),
		record(ingest.SourceConsumption, date(2023, time.August, 1), 0, 1),
	)
	table, err := Reconcile(Input{
		IEX:         &Source{Records: fullMonth(ingest.SourceIEX, 2023, time.July, 2)},
		Consumption: Source{Records: cons},
		Filter:      Filter{Date: date(2023, time.July, 31)},
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(table.Slots) != 96 {
		t.Fatalf("expected 96 slots for one day, got %d", len(table.Slots))
	}
	for _, s := range table.Slots {
		if s.Key.Date != "2023-07-31" {
			t.Fatalf("unexpected slot outside filter %v", s.Key)
		}
	}
}

func TestReconcile_LossBoundaries(t *testing.T) {
	d := date(2023, time.July, 1)
	cons := Source{Records: []ingest.Record{record(ingest.SourceConsumption, d, 0, 10)}}
	table, err := Reconcile(Input{IEX: &Source{Records: []ingest.Record{record(ingest.SourceIEX, d, 0, 50)}, LossPct: 100}, Consumption: cons})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if table.Slots[0].IEXAfterLossKWh != 0 || table.Slots[0].TotalExcessKWh != 0 {
		t.Fatalf("expected full loss to remove all generation, got %+v", table.Slots[0])
	}
	if _, err := Reconcile(Input{IEX: &Source{LossPct: 101}, Consumption: cons}); !errors.Is(err, ErrInvalidLoss) {
		t.Fatalf("expected ErrInvalidLoss, got %v", err)
	}
	if _, err := Reconcile(Input{Consumption: cons}); !errors.Is(err, ErrNoGenerationSource) {
		t.Fatalf("expected ErrNoGenerationSource, got %v", err)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	in := Input{
		IEX:         &Source{Records: fullMonth(ingest.SourceIEX, 2023, time.July, 3.3), LossPct: 4.5},
		CPP:         &Source{Records: fullMonth(ingest.SourceCPP, 2023, time.July, 1.1), LossPct: 2},
		Consumption: Source{Records: fullMonth(ingest.SourceConsumption, 2023, time.July, 2.7)},
		Filter:      Filter{Month: 7, Year: 2023},
	}
	first, err := Reconcile(in)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	second, err := Reconcile(in)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical tables across runs")
	}
}

func TestDetectPeriod(t *testing.T) {
	gen := append(fullMonth(ingest.SourceIEX, 2023, time.July, 1), record(ingest.SourceIEX, date(2023, time.August, 1), 0, 1))
	p, ok := DetectPeriod(gen)
	if !ok || p != (Period{Month: 7, Year: 2023}) {
		t.Fatalf("expected 07/2023, got %+v (%v)", p, ok)
	}
	tie := []ingest.Record{
		record(ingest.SourceIEX, date(2024, time.January, 1), 0, 1),
		record(ingest.SourceIEX, date(2023, time.December, 31), 0, 1),
	}
	if p, _ := DetectPeriod(tie); p != (Period{Month: 12, Year: 2023}) {
		t.Fatalf("expected earliest period on tie, got %+v", p)
	}
	cons := []ingest.Record{record(ingest.SourceConsumption, date(2022, time.March, 3), 0, 1)}
	if p, _ := DetectPeriod(nil, cons); p != (Period{Month: 3, Year: 2022}) {
		t.Fatalf("expected fallback to consumption, got %+v", p)
	}
	if _, ok := DetectPeriod(); ok {
		t.Fatalf("expected no period without records")
	}
}

func TestSummarize(t *testing.T) {
	d := date(2023, time.July, 1)
	table, err := Reconcile(Input{
		IEX: &Source{Records: []ingest.Record{
			record(ingest.SourceIEX, d, 24, 10), // 06:00 C1
			record(ingest.SourceIEX, d, 72, 20), // 18:00 C2
			record(ingest.SourceIEX, d, 88, 5),  // 22:00 C5
			record(ingest.SourceIEX, d, 40, 7),  // 10:00 C4
		}, LossPct: 0},
		Consumption: Source{},
	})
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	totals := Summarize(table.Slots)
	if totals.PeakExcessKWh() != 30 || totals.OffPeakExcessKWh() != 5 || totals.ExcessByCategory[CategoryC4] != 7 {
		t.Fatalf("unexpected category totals %+v", totals.ExcessByCategory)
	}
	if totals.TotalExcessKWh != 42 || totals.LossKWh() != 0 {
		t.Fatalf("unexpected totals %+v", totals)
	}
	if got := len(ExcessOnly(table.Slots)); got != 4 {
		t.Fatalf("expected 4 excess slots, got %d", got)
	}
}
