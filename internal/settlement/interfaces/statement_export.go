package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	statistic "adjustment-calculator/internal/analytics/domain/statistic"
	ingest "adjustment-calculator/internal/ingest/domain"
	reconciliation "adjustment-calculator/internal/reconciliation/domain"
	"adjustment-calculator/internal/settlement/application"
)

const statementTitle = "Excess Energy Adjustment Statement"

// View selects which slots a statement lists.
type View string

const (
	ViewAll    View = "all"
	ViewExcess View = "excess"
)

// ParseView accepts "all" and "excess"; empty means all.
func ParseView(value string) (View, error) {
	switch View(value) {
	case "", ViewAll:
		return ViewAll, nil
	case ViewExcess:
		return ViewExcess, nil
	default:
		return "", fmt.Errorf("unknown view %q", value)
	}
}

// Options tune statement rendering.
type Options struct {
	View View
	// Table picks the CSV table: "slots" or "daywise".
	Table string
}

func (o Options) slots(report *application.Report) []reconciliation.Slot {
	if o.View == ViewExcess {
		return report.ExcessSlots()
	}
	return report.Slots
}

// Money renders a rupee amount with two decimals.
func Money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func kwh(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

type summaryLine struct {
	label string
	value string
}

func headerLines(report *application.Report) []summaryLine {
	lines := []summaryLine{
		{"Run", report.RunID},
		{"Generated", report.GeneratedAt.Format(time.RFC3339)},
		{"Tariff tier", string(report.Tier)},
		{"Billing period", report.Period.Label},
		{"Filter", report.Filter},
		{"Tariff window", report.Tariff.Window.Label},
		{"Additional surcharge", fmt.Sprintf("%s (%s)", Money(report.Surcharge.Rate), report.Surcharge.Note)},
		{"Consumption multiplier", fmt.Sprintf("%g", report.ConsumptionMultiplier)},
	}
	if report.IEXEnabled {
		lines = append(lines, summaryLine{"IEX T&D loss (%)", fmt.Sprintf("%g", report.IEXLossPct)})
	}
	if report.CPPEnabled {
		lines = append(lines, summaryLine{"CPP T&D loss (%)", fmt.Sprintf("%g", report.CPPLossPct)})
	}
	if report.Period.AutoDetected {
		lines = append(lines, summaryLine{"Period source", "detected from data"})
	}
	return lines
}

func energyLines(report *application.Report) []summaryLine {
	e := report.Energy
	lines := []summaryLine{}
	if report.IEXEnabled {
		lines = append(lines,
			summaryLine{"IEX injection (kWh)", kwh(e.IEXInjectionKWh)},
			summaryLine{"IEX after loss (kWh)", kwh(e.IEXAfterLossKWh)},
		)
	}
	if report.CPPEnabled {
		lines = append(lines,
			summaryLine{"CPP injection (kWh)", kwh(e.CPPInjectionKWh)},
			summaryLine{"CPP after loss (kWh)", kwh(e.CPPAfterLossKWh)},
		)
	}
	return append(lines,
		summaryLine{"Total after loss (kWh)", kwh(e.AfterLossKWh)},
		summaryLine{"T&D loss (kWh)", kwh(e.LossKWh)},
		summaryLine{"Consumption (kWh)", kwh(e.ConsumptionKWh)},
		summaryLine{"IEX excess (kWh)", kwh(e.IEXExcessKWh)},
		summaryLine{"CPP excess (kWh)", kwh(e.CPPExcessKWh)},
		summaryLine{"Total excess (kWh)", kwh(e.TotalExcessKWh)},
		summaryLine{"Deficit (kWh)", kwh(e.DeficitKWh)},
	)
}

var slotHeader = []string{
	"Date", "Time", "TOD", "Consumption", "IEX before loss", "IEX after loss", "CPP before loss", "CPP after loss",
	"IEX adjustment", "IEX excess", "Remaining consumption", "CPP adjustment", "CPP excess", "Total excess", "Deficit", "Missing",
}

func slotRow(s reconciliation.Slot) []interface{} {
	return []interface{}{
		s.Day.Format(ingest.DisplayDateLayout), s.Key.TimeRange, string(s.TOD),
		s.ConsumptionKWh, s.IEXBeforeLossKWh, s.IEXAfterLossKWh, s.CPPBeforeLossKWh, s.CPPAfterLossKWh,
		s.IEXAdjustmentKWh, s.IEXExcessKWh, s.RemainingConsumptionKWh, s.CPPAdjustmentKWh, s.CPPExcessKWh,
		s.TotalExcessKWh, s.DeficitKWh, s.Missing.String(),
	}
}

var dayHeader = []string{
	"Date", "After loss", "IEX after loss", "CPP after loss", "Consumption",
	"IEX excess", "CPP excess", "Total excess", "C1+C2 excess", "C5 excess", "Slots",
}

func dayRow(d statistic.DayTotal) []interface{} {
	return []interface{}{
		d.Day.Format(ingest.DisplayDateLayout), d.AfterLossKWh, d.IEXAfterLossKWh, d.CPPAfterLossKWh,
		d.ConsumptionKWh, d.IEXExcessKWh, d.CPPExcessKWh, d.TotalExcessKWh,
		d.PeakExcessKWh, d.OffPeakExcessKWh, d.Slots,
	}
}

// cellText renders a table value for PDF and CSV output.
func cellText(v interface{}) string {
	switch x := v.(type) {
	case float64:
		return kwh(x)
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// BuildStatementPDF renders the statement with every settlement step disclosed.
func BuildStatementPDF(report *application.Report, opts Options) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, statementTitle)
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 9)
	writePDFLines(pdf, headerLines(report))

	pdfSection(pdf, "Energy summary")
	writePDFLines(pdf, energyLines(report))

	pdfSection(pdf, "Time of day breakdown")
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(20, 6, "Category", "1", 0, "C", false, 0, "")
	pdf.CellFormat(90, 6, "Band", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Excess (kWh)", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, line := range report.TOD {
		pdf.CellFormat(20, 6, string(line.Category), "1", 0, "C", false, 0, "")
		pdf.CellFormat(90, 6, line.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, kwh(line.ExcessKWh), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdfSection(pdf, "Settlement")
	pdf.SetFont("Arial", "B", 8)
	pdf.CellFormat(12, 6, "Step", "1", 0, "C", false, 0, "")
	pdf.CellFormat(48, 6, "Item", "1", 0, "C", false, 0, "")
	pdf.CellFormat(95, 6, "Computation", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 8)
	for _, step := range report.Steps {
		pdf.CellFormat(12, 6, step.Number, "1", 0, "C", false, 0, "")
		pdf.CellFormat(48, 6, step.Label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(95, 6, step.Expression, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, Money(step.Amount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.SetFont("Arial", "B", 10)
	pdf.Ln(2)
	pdf.Cell(0, 6, fmt.Sprintf("Amount payable (Rs.): %s", Money(report.Settlement.FinalAmountRounded)))
	pdf.Ln(8)

	if len(report.Warnings) > 0 {
		pdfSection(pdf, "Data quality")
		pdf.SetFont("Arial", "", 8)
		for _, w := range report.Warnings {
			pdf.MultiCell(0, 5, "- "+w.Message, "", "L", false)
		}
	}

	pdf.AddPage()
	pdfSection(pdf, "Day-wise summary")
	writePDFTable(pdf, dayHeader, []float64{20, 17, 17, 17, 18, 17, 17, 17, 17, 15, 10}, len(report.Days), func(i int) []interface{} {
		return dayRow(report.Days[i])
	})

	slots := opts.slots(report)
	pdf.AddPageFormat("L", gofpdf.SizeType{Wd: 210, Ht: 297})
	pdfSection(pdf, "Slot table")
	writePDFTable(pdf, slotHeader, []float64{17, 21, 11, 17, 17, 17, 17, 17, 17, 17, 17, 17, 17, 17, 15, 26}, len(slots), func(i int) []interface{} {
		return slotRow(slots[i])
	})

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pdfSection(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, title)
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
}

func writePDFLines(pdf *gofpdf.Fpdf, lines []summaryLine) {
	for _, line := range lines {
		pdf.CellFormat(55, 5, line.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, line.value, "", 0, "L", false, 0, "")
		pdf.Ln(5)
	}
}

func writePDFTable(pdf *gofpdf.Fpdf, header []string, widths []float64, rows int, row func(int) []interface{}) {
	pdf.SetFont("Arial", "B", 6)
	for i, h := range header {
		pdf.CellFormat(widths[i], 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 6)
	for r := 0; r < rows; r++ {
		for i, v := range row(r) {
			align := "R"
			if _, text := v.(string); text {
				align = "L"
			}
			pdf.CellFormat(widths[i], 5, cellText(v), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// BuildStatementXLSX renders summary, slots and daywise sheets.
func BuildStatementXLSX(report *application.Report, opts Options) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	slotsSheet := "slots"
	daysSheet := "daywise"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(slotsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(daysSheet); err != nil {
		return nil, err
	}

	row := 1
	put := func(values ...interface{}) {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetSheetRow(summarySheet, cell, &values)
		row++
	}
	put(statementTitle)
	row++
	for _, line := range headerLines(report) {
		put(line.label, line.value)
	}
	row++
	put("Energy summary")
	for _, line := range energyLines(report) {
		put(line.label, line.value)
	}
	row++
	put("Category", "Band", "Excess (kWh)")
	for _, line := range report.TOD {
		put(string(line.Category), line.Description, line.ExcessKWh)
	}
	row++
	put("Step", "Item", "Computation", "Amount")
	for _, step := range report.Steps {
		put(step.Number, step.Label, step.Expression, Money(step.Amount))
	}
	put("", "Amount payable (Rs.)", "", Money(report.Settlement.FinalAmountRounded))
	if len(report.Warnings) > 0 {
		row++
		put("Warnings")
		for _, w := range report.Warnings {
			put(w.Code, w.Message)
		}
	}

	slots := opts.slots(report)
	if err := writeSheet(f, slotsSheet, slotHeader, len(slots), func(i int) []interface{} {
		return slotRow(slots[i])
	}); err != nil {
		return nil, err
	}
	if err := writeSheet(f, daysSheet, dayHeader, len(report.Days), func(i int) []interface{} {
		return dayRow(report.Days[i])
	}); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows int, row func(int) []interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for r := 0; r < rows; r++ {
		values := row(r)
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}
