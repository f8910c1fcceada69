package reconciliation

import (
	"sort"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	ingest "adjustment-calculator/internal/ingest/domain"
)

// Source is one normalized generation or consumption input.
type Source struct {
	Records []ingest.Record
	// LossPct is the T&D loss deducted from generation; ignored for consumption.
	LossPct float64
}

// Input is everything one reconciliation run needs. A nil IEX or CPP source is disabled.
type Input struct {
	IEX         *Source
	CPP         *Source
	Consumption Source
	Filter      Filter
}

// Missing flags the sources that had no record for a slot.
type Missing struct {
	IEX         bool `json:"iex"`
	CPP         bool `json:"cpp"`
	Consumption bool `json:"consumption"`
}

// Any reports whether any source lacked the slot.
func (m Missing) Any() bool { return m.IEX || m.CPP || m.Consumption }

func (m Missing) String() string {
	var parts []string
	if m.IEX {
		parts = append(parts, "IEX")
	}
	if m.CPP {
		parts = append(parts, "CPP")
	}
	if m.Consumption {
		parts = append(parts, "CONSUMPTION")
	}
	if len(parts) == 0 {
		return ""
	}
	return "Missing in " + strings.Join(parts, ", ")
}

// Slot is one reconciled 15-minute slot.
type Slot struct {
	Key                     ingest.SlotKey `json:"key"`
	Day                     time.Time      `json:"day"`
	ConsumptionKWh          float64        `json:"consumption_kwh"`
	IEXBeforeLossKWh        float64        `json:"iex_before_loss_kwh"`
	IEXAfterLossKWh         float64        `json:"iex_after_loss_kwh"`
	CPPBeforeLossKWh        float64        `json:"cpp_before_loss_kwh"`
	CPPAfterLossKWh         float64        `json:"cpp_after_loss_kwh"`
	IEXAdjustmentKWh        float64        `json:"iex_adjustment_kwh"`
	IEXExcessKWh            float64        `json:"iex_excess_kwh"`
	RemainingConsumptionKWh float64        `json:"remaining_consumption_kwh"`
	CPPAdjustmentKWh        float64        `json:"cpp_adjustment_kwh"`
	CPPExcessKWh            float64        `json:"cpp_excess_kwh"`
	TotalExcessKWh          float64        `json:"total_excess_kwh"`
	DeficitKWh              float64        `json:"deficit_kwh"`
	TOD                     Category       `json:"tod_category"`
	Missing                 Missing        `json:"missing"`
}

// AfterLossKWh is the generation available after loss from both sources.
func (s Slot) AfterLossKWh() float64 { return s.IEXAfterLossKWh + s.CPPAfterLossKWh }

// Netting is the sequential allocation of consumption to two generation sources.
type Netting struct {
	FirstAdjustment  float64
	FirstExcess      float64
	Remaining        float64
	SecondAdjustment float64
	SecondExcess     float64
	TotalExcess      float64
	Deficit          float64
}

// Net satisfies consumption from first, then satisfies what remains from second.
// second never reduces first's excess and first is never backfilled from second.
func Net(consumption, first, second float64) Netting {
	var n Netting
	n.FirstAdjustment = min(first, consumption)
	n.FirstExcess = max(0, first-consumption)
	n.Remaining = max(0, consumption-n.FirstAdjustment)
	n.SecondAdjustment = min(second, n.Remaining)
	n.SecondExcess = max(0, second-n.Remaining)
	n.TotalExcess = n.FirstExcess + n.SecondExcess
	n.Deficit = max(0, n.Remaining-second)
	return n
}

// Table is the reconciled slot table of one run.
type Table struct {
	Slots              []Slot
	Filter             Filter
	IEXEnabled         bool
	CPPEnabled         bool
	IEXLossPct         float64
	CPPLossPct         float64
	AvailableDates     []string
	MissingIEX         int
	MissingCPP         int
	MissingConsumption int
}

type slotAcc struct {
	day         time.Time
	consumption float64
	iex         float64
	cpp         float64
}

// Reconcile builds the slot table over the union of all slot keys seen in any input.
// Slots absent from a source carry zero for it and are flagged, never dropped.
func Reconcile(in Input) (*Table, error) {
	if in.IEX == nil && in.CPP == nil {
		return nil, ErrNoGenerationSource
	}
	table := &Table{Filter: in.Filter, IEXEnabled: in.IEX != nil, CPPEnabled: in.CPP != nil}
	if in.IEX != nil {
		if !validLoss(in.IEX.LossPct) {
			return nil, ErrInvalidLoss
		}
		table.IEXLossPct = in.IEX.LossPct
	}
	if in.CPP != nil {
		if !validLoss(in.CPP.LossPct) {
			return nil, ErrInvalidLoss
		}
		table.CPPLossPct = in.CPP.LossPct
	}

	var all []ingest.Record
	inputs := []struct {
		source ingest.SourceType
		src    *Source
	}{
		{ingest.SourceIEX, in.IEX},
		{ingest.SourceCPP, in.CPP},
		{ingest.SourceConsumption, &in.Consumption},
	}
	filtered := make(map[ingest.SourceType][]ingest.Record, len(inputs))
	for _, item := range inputs {
		if item.src == nil {
			continue
		}
		all = append(all, item.src.Records...)
		kept := filterRecords(item.src.Records, in.Filter)
		if in.Filter.Active() && len(kept) == 0 {
			return nil, &EmptyFilterError{
				Source:          item.source,
				Filter:          in.Filter,
				AvailableDates:  AvailableDates(item.src.Records),
				AvailableMonths: AvailableMonths(item.src.Records),
			}
		}
		filtered[item.source] = kept
	}
	table.AvailableDates = AvailableDates(all)

	acc := make(map[ingest.SlotKey]*slotAcc)
	present := make(map[ingest.SourceType]mapset.Set[ingest.SlotKey], len(inputs))
	for source, records := range filtered {
		set := mapset.NewThreadUnsafeSet[ingest.SlotKey]()
		for _, rec := range records {
			set.Add(rec.Key)
			a, ok := acc[rec.Key]
			if !ok {
				a = &slotAcc{day: rec.Day}
				acc[rec.Key] = a
			}
			switch source {
			case ingest.SourceIEX:
				a.iex += rec.EnergyKWh
			case ingest.SourceCPP:
				a.cpp += rec.EnergyKWh
			case ingest.SourceConsumption:
				a.consumption += rec.EnergyKWh
			}
		}
		present[source] = set
	}

	universe := mapset.NewThreadUnsafeSet[ingest.SlotKey]()
	for _, set := range present {
		universe = universe.Union(set)
	}
	keys := universe.ToSlice()
	sortKeys(keys)

	table.Slots = make([]Slot, 0, len(keys))
	for _, key := range keys {
		a := acc[key]
		slot := Slot{
			Key:              key,
			Day:              a.day,
			ConsumptionKWh:   a.consumption,
			IEXBeforeLossKWh: a.iex,
			IEXAfterLossKWh:  afterLoss(a.iex, table.IEXLossPct),
			CPPBeforeLossKWh: a.cpp,
			CPPAfterLossKWh:  afterLoss(a.cpp, table.CPPLossPct),
			TOD:              Classify(key.TimeRange),
		}
		n := Net(slot.ConsumptionKWh, slot.IEXAfterLossKWh, slot.CPPAfterLossKWh)
		slot.IEXAdjustmentKWh = n.FirstAdjustment
		slot.IEXExcessKWh = n.FirstExcess
		slot.RemainingConsumptionKWh = n.Remaining
		slot.CPPAdjustmentKWh = n.SecondAdjustment
		slot.CPPExcessKWh = n.SecondExcess
		slot.TotalExcessKWh = n.TotalExcess
		slot.DeficitKWh = n.Deficit

		slot.Missing = Missing{
			IEX:         table.IEXEnabled && !present[ingest.SourceIEX].Contains(key),
			CPP:         table.CPPEnabled && !present[ingest.SourceCPP].Contains(key),
			Consumption: !present[ingest.SourceConsumption].Contains(key),
		}
		if slot.Missing.IEX {
			table.MissingIEX++
		}
		if slot.Missing.CPP {
			table.MissingCPP++
		}
		if slot.Missing.Consumption {
			table.MissingConsumption++
		}
		table.Slots = append(table.Slots, slot)
	}
	return table, nil
}

// ExcessOnly returns the slots with positive total excess.
func ExcessOnly(slots []Slot) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, slot := range slots {
		if slot.TotalExcessKWh > 0 {
			out = append(out, slot)
		}
	}
	return out
}

// AvailableDates lists the distinct record dates as dd/mm/yyyy in calendar order.
func AvailableDates(records []ingest.Record) []string {
	days := distinctDays(records)
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.Format(ingest.DisplayDateLayout)
	}
	return out
}

// AvailableMonths lists the distinct record months as mm/yyyy in calendar order.
func AvailableMonths(records []ingest.Record) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, d := range distinctDays(records) {
		label := d.Format("01/2006")
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}

func distinctDays(records []ingest.Record) []time.Time {
	set := mapset.NewThreadUnsafeSet[string]()
	for _, rec := range records {
		set.Add(rec.Key.Date)
	}
	dates := set.ToSlice()
	sort.Strings(dates)
	days := make([]time.Time, 0, len(dates))
	for _, date := range dates {
		day := ingest.SlotKey{Date: date}.Day()
		if !day.IsZero() {
			days = append(days, day)
		}
	}
	return days
}

func filterRecords(records []ingest.Record, f Filter) []ingest.Record {
	if !f.Active() {
		return records
	}
	kept := make([]ingest.Record, 0, len(records))
	for _, rec := range records {
		if f.Contains(rec.Day) {
			kept = append(kept, rec)
		}
	}
	return kept
}

func sortKeys(keys []ingest.SlotKey) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		am, bm := a.StartMinutes(), b.StartMinutes()
		if am != bm {
			return am < bm
		}
		return a.TimeRange < b.TimeRange
	})
}

func afterLoss(energy, lossPct float64) float64 {
	return energy * (1 - lossPct/100)
}

func validLoss(pct float64) bool {
	return pct >= 0 && pct <= 100
}
