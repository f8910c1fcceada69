package settlement

import (
	"fmt"
	"math"
)

const (
	// ETaxRate is electricity tax on the subtotal.
	ETaxRate = 0.05
	// ETaxOnIEXPerKWh is the flat rupee deduction per kWh of total excess.
	ETaxOnIEXPerKWh = 0.10
	// WheelingReductionRate is the fixed deduction applied to the combined wheeling energy.
	WheelingReductionRate = 0.0234
)

// Rates are the per-kWh rupee rates one settlement uses.
type Rates struct {
	Base                float64 `json:"base_rate"`
	PeakBand            float64 `json:"peak_band_rate"`
	OffPeakBand         float64 `json:"offpeak_band_rate"`
	Wheeling            float64 `json:"wheeling_rate"`
	CrossSubsidy        float64 `json:"cross_subsidy_rate"`
	AdditionalSurcharge float64 `json:"additional_surcharge_rate"`
}

// Input is the excess energy of a period and the rates that apply to it.
type Input struct {
	TotalExcessKWh   float64
	PeakExcessKWh    float64
	OffPeakExcessKWh float64
	IEXExcessKWh     float64
	WheelingLossPct  float64
	Rates            Rates
}

// Wheeling holds the two-stage wheeling computation.
type Wheeling struct {
	LossPct      float64 `json:"loss_pct"`
	ReferenceKWh float64 `json:"reference_kwh"`
	CombinedKWh  float64 `json:"combined_kwh"`
	ReductionKWh float64 `json:"reduction_kwh"`
	AdjustedKWh  float64 `json:"adjusted_kwh"`
	Charges      float64 `json:"charges"`
}

// Result carries every quantity of the settlement under its own name.
// Billed kWh fields are the rounded operands the amounts were computed from.
type Result struct {
	Rates Rates `json:"rates"`

	TotalExcessKWh         float64 `json:"total_excess_kwh"`
	TotalExcessBilledKWh   float64 `json:"total_excess_billed_kwh"`
	PeakExcessKWh          float64 `json:"peak_excess_kwh"`
	PeakExcessBilledKWh    float64 `json:"peak_excess_billed_kwh"`
	OffPeakExcessKWh       float64 `json:"offpeak_excess_kwh"`
	OffPeakExcessBilledKWh float64 `json:"offpeak_excess_billed_kwh"`
	IEXExcessKWh           float64 `json:"iex_excess_kwh"`
	IEXExcessBilledKWh     float64 `json:"iex_excess_billed_kwh"`

	BaseAmount            float64  `json:"base_amount"`
	PeakAdditional        float64  `json:"c1c2_additional"`
	OffPeakAdditional     float64  `json:"c5_additional"`
	Subtotal              float64  `json:"subtotal"`
	ETax                  float64  `json:"etax"`
	SubtotalWithETax      float64  `json:"subtotal_with_etax"`
	ETaxOnIEX             float64  `json:"etax_on_iex"`
	CrossSubsidySurcharge float64  `json:"cross_subsidy_surcharge"`
	AdditionalSurcharge   float64  `json:"additional_surcharge"`
	Wheeling              Wheeling `json:"wheeling"`
	Deductions            float64  `json:"deductions"`
	FinalAmount           float64  `json:"final_amount"`
	FinalAmountRounded    float64  `json:"final_amount_rounded"`
}

// Calculate runs the settlement steps in order. Zero excess, a single source,
// and loss of 0 or 100 all produce a coherent result.
func Calculate(in Input) (Result, error) {
	if err := in.validate(); err != nil {
		return Result{}, err
	}

	r := Result{
		Rates:            in.Rates,
		TotalExcessKWh:   in.TotalExcessKWh,
		PeakExcessKWh:    in.PeakExcessKWh,
		OffPeakExcessKWh: in.OffPeakExcessKWh,
		IEXExcessKWh:     in.IEXExcessKWh,
	}
	r.TotalExcessBilledKWh = RoundKWh(in.TotalExcessKWh)
	r.PeakExcessBilledKWh = RoundKWh(in.PeakExcessKWh)
	r.OffPeakExcessBilledKWh = RoundKWh(in.OffPeakExcessKWh)
	r.IEXExcessBilledKWh = RoundKWh(in.IEXExcessKWh)

	// 1-6
	r.BaseAmount = r.TotalExcessBilledKWh * in.Rates.Base
	r.PeakAdditional = r.PeakExcessBilledKWh * in.Rates.PeakBand
	r.OffPeakAdditional = r.OffPeakExcessBilledKWh * in.Rates.OffPeakBand
	r.Subtotal = r.BaseAmount + r.PeakAdditional + r.OffPeakAdditional
	r.ETax = r.Subtotal * ETaxRate
	r.SubtotalWithETax = r.Subtotal + r.ETax

	// 7, 8, 8a
	r.ETaxOnIEX = r.TotalExcessBilledKWh * ETaxOnIEXPerKWh
	r.CrossSubsidySurcharge = r.IEXExcessBilledKWh * in.Rates.CrossSubsidy
	r.AdditionalSurcharge = r.IEXExcessBilledKWh * in.Rates.AdditionalSurcharge

	// 9
	r.Wheeling = wheeling(in.TotalExcessKWh, in.WheelingLossPct, in.Rates.Wheeling)

	// 10, 11
	r.Deductions = r.ETaxOnIEX + r.CrossSubsidySurcharge + r.Wheeling.Charges + r.AdditionalSurcharge
	r.FinalAmount = r.SubtotalWithETax - r.Deductions
	r.FinalAmountRounded = CeilAmount(r.FinalAmount)
	return r, nil
}

func wheeling(totalExcessKWh, lossPct, rate float64) Wheeling {
	w := Wheeling{LossPct: lossPct}
	if lossPct > 0 && lossPct < 100 {
		w.ReferenceKWh = RoundKWh((totalExcessKWh * lossPct) / (100 - lossPct))
	}
	w.CombinedKWh = totalExcessKWh + w.ReferenceKWh
	w.ReductionKWh = w.CombinedKWh * WheelingReductionRate
	w.AdjustedKWh = w.CombinedKWh - w.ReductionKWh
	w.Charges = w.AdjustedKWh * rate
	return w
}

func (in Input) validate() error {
	values := []struct {
		name  string
		value float64
	}{
		{"total excess", in.TotalExcessKWh},
		{"peak excess", in.PeakExcessKWh},
		{"off-peak excess", in.OffPeakExcessKWh},
		{"iex excess", in.IEXExcessKWh},
		{"base rate", in.Rates.Base},
		{"peak band rate", in.Rates.PeakBand},
		{"off-peak band rate", in.Rates.OffPeakBand},
		{"wheeling rate", in.Rates.Wheeling},
		{"cross subsidy rate", in.Rates.CrossSubsidy},
		{"additional surcharge rate", in.Rates.AdditionalSurcharge},
	}
	for _, v := range values {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return fmt.Errorf("%w: %s", ErrNotFinite, v.name)
		}
		if v.value < 0 {
			return fmt.Errorf("%w: %s", ErrNegativeValue, v.name)
		}
	}
	if math.IsNaN(in.WheelingLossPct) || in.WheelingLossPct < 0 || in.WheelingLossPct > 100 {
		return ErrInvalidLoss
	}
	return nil
}
