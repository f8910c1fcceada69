package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	ingest "adjustment-calculator/internal/ingest/domain"
)

const (
	dateColumn = 0
	timeColumn = 1

	// Serial 61 is 1900-03-01; earlier serials sit behind the 1900 leap-year bug.
	minDateSerial = 61
	maxDateSerial = 2958465
)

// readXLSX reads the first sheet with raw cell values so that dates and
// times stored as Excel serials are converted here rather than by locale formatting.
func readXLSX(r io.Reader) ([]ingest.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	cells, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", sheets[0], err)
	}

	rows := make([]ingest.RawRow, 0, len(cells))
	for i, row := range cells {
		out := make(ingest.RawRow, len(row))
		copy(out, row)
		if i > 0 {
			if len(out) > dateColumn {
				out[dateColumn] = serialDate(out[dateColumn])
			}
			if len(out) > timeColumn {
				out[timeColumn] = serialTime(out[timeColumn])
			}
		}
		rows = append(rows, out)
	}
	return rows, nil
}

func serialDate(value string) string {
	serial, ok := parseSerial(value)
	if !ok || serial < minDateSerial || serial > maxDateSerial {
		return value
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return value
	}
	return t.Format(ingest.DateLayout)
}

func serialTime(value string) string {
	serial, ok := parseSerial(value)
	if !ok || serial < 0 || serial > maxDateSerial {
		return value
	}
	if serial < 1 {
		minutes := int(math.Round(serial * 24 * 60))
		return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return value
	}
	return t.Round(time.Minute).Format("2006-01-02 15:04:05")
}

func parseSerial(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return 0, false
	}
	return serial, true
}
