package settlement

import (
	"fmt"
	"strconv"
)

// Step is one disclosed line of the settlement. Expression is built from the
// same Result fields the amount came from.
type Step struct {
	Number     string  `json:"number"`
	Label      string  `json:"label"`
	Expression string  `json:"expression"`
	Amount     float64 `json:"amount"`
}

// Steps lists the settlement in evaluation order.
func (r Result) Steps() []Step {
	w := r.Wheeling
	return []Step{
		{"1", "Base amount", fmt.Sprintf("%s kWh x %s", num(r.TotalExcessBilledKWh), num(r.Rates.Base)), r.BaseAmount},
		{"2", "C1+C2 additional", fmt.Sprintf("%s kWh x %s", num(r.PeakExcessBilledKWh), num(r.Rates.PeakBand)), r.PeakAdditional},
		{"3", "C5 additional", fmt.Sprintf("%s kWh x %s", num(r.OffPeakExcessBilledKWh), num(r.Rates.OffPeakBand)), r.OffPeakAdditional},
		{"4", "Subtotal", fmt.Sprintf("%s + %s + %s", num(r.BaseAmount), num(r.PeakAdditional), num(r.OffPeakAdditional)), r.Subtotal},
		{"5", "E-Tax", fmt.Sprintf("%s x %s", num(r.Subtotal), num(ETaxRate)), r.ETax},
		{"6", "Subtotal with E-Tax", fmt.Sprintf("%s + %s", num(r.Subtotal), num(r.ETax)), r.SubtotalWithETax},
		{"7", "E-Tax on IEX (total excess)", fmt.Sprintf("%s kWh x %s", num(r.TotalExcessBilledKWh), num(ETaxOnIEXPerKWh)), r.ETaxOnIEX},
		{"8", "Cross subsidy surcharge", fmt.Sprintf("%s kWh x %s", num(r.IEXExcessBilledKWh), num(r.Rates.CrossSubsidy)), r.CrossSubsidySurcharge},
		{"8a", "Additional surcharge", fmt.Sprintf("%s kWh x %s", num(r.IEXExcessBilledKWh), num(r.Rates.AdditionalSurcharge)), r.AdditionalSurcharge},
		{"9a", "Wheeling reference energy", fmt.Sprintf("round(%s x %s / (100 - %s))", num(r.TotalExcessKWh), num(w.LossPct), num(w.LossPct)), w.ReferenceKWh},
		{"9b", "Wheeling combined energy", fmt.Sprintf("%s + %s", num(r.TotalExcessKWh), num(w.ReferenceKWh)), w.CombinedKWh},
		{"9c", "Wheeling reduction", fmt.Sprintf("%s x %s", num(w.CombinedKWh), num(WheelingReductionRate)), w.ReductionKWh},
		{"9d", "Wheeling adjusted energy", fmt.Sprintf("%s - %s", num(w.CombinedKWh), num(w.ReductionKWh)), w.AdjustedKWh},
		{"9e", "Wheeling charges", fmt.Sprintf("%s kWh x %s", num(w.AdjustedKWh), num(r.Rates.Wheeling)), w.Charges},
		{"10", "Final amount", fmt.Sprintf("%s - (%s + %s + %s + %s)", num(r.SubtotalWithETax), num(r.ETaxOnIEX), num(r.CrossSubsidySurcharge), num(w.Charges), num(r.AdditionalSurcharge)), r.FinalAmount},
		{"11", "Final amount rounded up", fmt.Sprintf("ceil(%s)", num(r.FinalAmount)), r.FinalAmountRounded},
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
