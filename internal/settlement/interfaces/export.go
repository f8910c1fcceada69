package interfaces

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"adjustment-calculator/internal/observability/metrics"
	"adjustment-calculator/internal/settlement/application"
)

// Format is a statement file format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// CSV tables.
const (
	TableSlots   = "slots"
	TableDaywise = "daywise"
)

// ParseFormat accepts pdf, xlsx and csv in any case.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case FormatPDF, FormatXLSX, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unknown statement format %q", value)
	}
}

// ContentType is the MIME type served for a format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// FileName is the download name of a statement.
func FileName(report *application.Report, format Format, opts Options) string {
	base := "adjustment"
	if report.Period.Month != 0 && report.Period.Year != 0 {
		base = fmt.Sprintf("adjustment_%d_%02d", report.Period.Year, report.Period.Month)
	}
	if format == FormatCSV {
		table := opts.Table
		if table == "" {
			table = TableSlots
		}
		base += "_" + table
	}
	return base + "." + string(format)
}

// Export renders a report in the given format and records export metrics.
func Export(report *application.Report, format Format, opts Options) ([]byte, error) {
	start := time.Now()
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatPDF:
		data, err = BuildStatementPDF(report, opts)
	case FormatXLSX:
		data, err = BuildStatementXLSX(report, opts)
	case FormatCSV:
		var buf bytes.Buffer
		if opts.Table == TableDaywise {
			err = WriteDaysCSV(&buf, report)
		} else {
			err = WriteSlotsCSV(&buf, report, opts)
		}
		data = buf.Bytes()
	default:
		err = fmt.Errorf("unknown statement format %q", format)
	}
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveStatementExport(string(format), result, time.Since(start))
	if err != nil {
		return nil, err
	}
	return data, nil
}

// WriteSlotsCSV writes the slot table.
func WriteSlotsCSV(w io.Writer, report *application.Report, opts Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(slotHeader); err != nil {
		return err
	}
	for _, slot := range opts.slots(report) {
		if err := cw.Write(textRow(slotRow(slot))); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDaysCSV writes the day-wise table.
func WriteDaysCSV(w io.Writer, report *application.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(dayHeader); err != nil {
		return err
	}
	for _, day := range report.Days {
		if err := cw.Write(textRow(dayRow(day))); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func textRow(values []interface{}) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = cellText(v)
	}
	return out
}
