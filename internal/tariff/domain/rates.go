package tariff

import (
	"fmt"
	"sort"
	"time"
)

// Rates are the per-kWh rupee rates of one tariff window.
type Rates struct {
	Base         float64 `json:"base_rate"`
	PeakBand     float64 `json:"peak_band_rate"`
	OffPeakBand  float64 `json:"offpeak_band_rate"`
	Wheeling     float64 `json:"wheeling_rate"`
	CrossSubsidy float64 `json:"cross_subsidy_rate"`
}

func (r Rates) valid() bool {
	return r.Base >= 0 && r.PeakBand >= 0 && r.OffPeakBand >= 0 && r.Wheeling >= 0 && r.CrossSubsidy >= 0
}

// RateWindow is effective from Start until the next window of the same tier begins.
type RateWindow struct {
	Start time.Time `json:"start"`
	Tier  Tier      `json:"tier"`
	Label string    `json:"label"`
	Rates Rates     `json:"rates"`
}

// RateTable holds contiguous rate windows per tier, ordered by start.
type RateTable struct {
	windows map[Tier][]RateWindow
}

// NewRateTable validates and orders windows. The input slice is not retained.
func NewRateTable(windows []RateWindow) (*RateTable, error) {
	byTier := make(map[Tier][]RateWindow)
	for _, w := range windows {
		if !w.Tier.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTier, w.Tier)
		}
		if w.Start.IsZero() || !w.Rates.valid() {
			return nil, fmt.Errorf("%w: tier %s start %s", ErrInvalidWindow, w.Tier, w.Start.Format("2006-01-02"))
		}
		w.Start = dateOnly(w.Start)
		if w.Label == "" {
			w.Label = "Tariff effective " + w.Start.Format("02.01.2006")
		}
		byTier[w.Tier] = append(byTier[w.Tier], w)
	}
	for tier, list := range byTier {
		sort.Slice(list, func(i, j int) bool { return list[i].Start.Before(list[j].Start) })
		for i := 1; i < len(list); i++ {
			if list[i].Start.Equal(list[i-1].Start) {
				return nil, fmt.Errorf("%w: tier %s start %s", ErrDuplicateWindow, tier, list[i].Start.Format("2006-01-02"))
			}
		}
	}
	return &RateTable{windows: byTier}, nil
}

// Windows returns a copy of the ordered windows of a tier.
func (t *RateTable) Windows(tier Tier) []RateWindow {
	if t == nil {
		return nil
	}
	return append([]RateWindow(nil), t.windows[tier]...)
}

// RateResolution is the outcome of a tariff lookup.
type RateResolution struct {
	Tier          Tier       `json:"tier"`
	ReferenceDate time.Time  `json:"reference_date"`
	Window        RateWindow `json:"window"`
	// BeforeAllWindows is set when the reference date precedes the earliest window.
	BeforeAllWindows bool `json:"before_all_windows"`
	// TodayFallback is set when no billing month was supplied.
	TodayFallback bool `json:"today_fallback"`
}

// Rates returns the resolved rates.
func (r RateResolution) Rates() Rates { return r.Window.Rates }

// Resolve returns the latest window whose start is on or before reference.
// A reference before every window resolves to the earliest window.
func (t *RateTable) Resolve(tier Tier, reference time.Time) (RateResolution, error) {
	if !tier.Valid() {
		return RateResolution{}, ErrUnknownTier
	}
	if t == nil || len(t.windows[tier]) == 0 {
		return RateResolution{}, fmt.Errorf("%w: tier %s", ErrNoWindows, tier)
	}
	list := t.windows[tier]
	reference = dateOnly(reference)

	idx := sort.Search(len(list), func(i int) bool { return list[i].Start.After(reference) }) - 1
	res := RateResolution{Tier: tier, ReferenceDate: reference}
	if idx < 0 {
		res.Window = list[0]
		res.BeforeAllWindows = true
		return res, nil
	}
	res.Window = list[idx]
	return res, nil
}

// BillingReference is the first day of the billing month.
func BillingReference(month, year int) (time.Time, error) {
	if month < 1 || month > 12 || year < 1 {
		return time.Time{}, ErrInvalidPeriod
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
