package tariff

import (
	"fmt"
	"sort"
	"time"
)

// NotSelectedLabel marks a surcharge lookup made without a billing month.
const NotSelectedLabel = "Not selected"

// SurchargeWindow is an inclusive date range carrying an additional surcharge rate.
// Windows are sparse: dates between windows carry no surcharge.
type SurchargeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Rate  float64   `json:"rate"`
	Label string    `json:"label"`
}

// Overlaps reports whether the window intersects [from, to], both inclusive.
func (w SurchargeWindow) Overlaps(from, to time.Time) bool {
	return !w.Start.After(to) && !w.End.Before(from)
}

// SurchargeTable holds additional surcharge windows ordered by start.
type SurchargeTable struct {
	windows []SurchargeWindow
}

// NewSurchargeTable validates and orders windows.
func NewSurchargeTable(windows []SurchargeWindow) (*SurchargeTable, error) {
	list := make([]SurchargeWindow, 0, len(windows))
	for _, w := range windows {
		if w.Start.IsZero() || w.End.IsZero() || w.Rate < 0 {
			return nil, fmt.Errorf("%w: surcharge %q", ErrInvalidWindow, w.Label)
		}
		w.Start, w.End = dateOnly(w.Start), dateOnly(w.End)
		if w.End.Before(w.Start) {
			return nil, fmt.Errorf("%w: surcharge %q ends before it starts", ErrInvalidWindow, w.Label)
		}
		list = append(list, w)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Start.Before(list[j].Start) })
	return &SurchargeTable{windows: list}, nil
}

// Windows returns a copy of the ordered windows.
func (t *SurchargeTable) Windows() []SurchargeWindow {
	if t == nil {
		return nil
	}
	return append([]SurchargeWindow(nil), t.windows...)
}

// SurchargeResolution is the additional surcharge applied to a billing month.
type SurchargeResolution struct {
	Selected bool             `json:"selected"`
	Rate     float64          `json:"rate"`
	Note     string           `json:"note"`
	Window   *SurchargeWindow `json:"window,omitempty"`
}

// Resolve finds the earliest window overlapping the billing month.
// No overlap yields rate 0 with a note; a missing month yields NotSelectedLabel.
func (t *SurchargeTable) Resolve(month, year int) SurchargeResolution {
	from, err := BillingReference(month, year)
	if err != nil {
		return SurchargeResolution{Note: NotSelectedLabel}
	}
	to := from.AddDate(0, 1, -1)

	if t != nil {
		for i := range t.windows {
			w := t.windows[i]
			if w.Overlaps(from, to) {
				return SurchargeResolution{
					Selected: true,
					Rate:     w.Rate,
					Note:     w.Label,
					Window:   &w,
				}
			}
		}
	}
	return SurchargeResolution{
		Selected: true,
		Note:     fmt.Sprintf("No additional surcharge order covers %s", from.Format("January 2006")),
	}
}
