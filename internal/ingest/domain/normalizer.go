package ingest

import (
	"math"
	"strconv"
	"strings"
)

// Normalizer converts raw rows of one source into slot records.
type Normalizer struct {
	source     SourceType
	multiplier float64
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithMultiplier scales every energy value after unit conversion.
func WithMultiplier(factor float64) NormalizerOption {
	return func(n *Normalizer) {
		n.multiplier = factor
	}
}

// NewNormalizer constructs a normalizer for one source type.
func NewNormalizer(source SourceType, opts ...NormalizerOption) (*Normalizer, error) {
	if _, err := ParseSourceType(string(source)); err != nil {
		return nil, err
	}
	n := &Normalizer{source: source, multiplier: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	if !(n.multiplier > 0) {
		return nil, ErrInvalidMultiplier
	}
	return n, nil
}

// FileStats reports per-file normalization counts.
type FileStats struct {
	Name         string
	Rows         int
	CoercedCells int
	DroppedRows  int
	UnknownTimes int
}

// Batch is the normalized output for one source.
type Batch struct {
	Source       SourceType
	DateOrder    DateOrder
	Records      []Record
	Files        []FileStats
	CoercedCells int
	DroppedRows  int
	UnknownTimes int
}

type pendingRow struct {
	file   int
	date   string
	time   string
	energy string
}

// Normalize concatenates files and converts every row into a Record.
// Rows whose date cannot be read are dropped and counted; non-numeric
// energy cells become zero and are counted.
func (n *Normalizer) Normalize(files []SourceFile) (*Batch, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	batch := &Batch{Source: n.source, Files: make([]FileStats, len(files))}
	var pending []pendingRow
	for i, file := range files {
		batch.Files[i].Name = file.Name
		rows, err := n.collect(i, file)
		if err != nil {
			return nil, err
		}
		batch.Files[i].Rows = len(rows)
		pending = append(pending, rows...)
	}

	order, ok := chooseDateOrder(pending)
	if !ok {
		return nil, &FileError{File: fileNames(files), Source: n.source, Err: ErrNoValidDates}
	}
	batch.DateOrder = order

	batch.Records = make([]Record, 0, len(pending))
	for _, row := range pending {
		stats := &batch.Files[row.file]
		day, ok := ParseDate(row.date, order)
		if !ok {
			stats.DroppedRows++
			batch.DroppedRows++
			continue
		}
		slot, ok := ParseSlotTime(row.time)
		if !ok {
			stats.UnknownTimes++
			batch.UnknownTimes++
		}
		if slot.PreviousDay {
			day = day.AddDate(0, 0, -1)
		}
		raw, ok := ParseEnergy(row.energy)
		if !ok {
			stats.CoercedCells++
			batch.CoercedCells++
		}

		energy := raw * n.multiplier
		if n.source.IsGeneration() {
			energy = raw * MWToKWh * n.multiplier
		}
		batch.Records = append(batch.Records, Record{
			Key:        NewSlotKey(day, slot.Range),
			Day:        day,
			Source:     n.source,
			SourceFile: files[row.file].Name,
			RawEnergy:  raw,
			EnergyKWh:  energy,
			Coerced:    !ok,
		})
	}
	return batch, nil
}

func (n *Normalizer) collect(index int, file SourceFile) ([]pendingRow, error) {
	width := 0
	rows := make([]pendingRow, 0, len(file.Rows))
	for _, row := range file.Rows {
		if blankRow(row) {
			continue
		}
		if len(row) > width {
			width = len(row)
		}
		rows = append(rows, pendingRow{
			file:   index,
			date:   cell(row, 0),
			time:   cell(row, 1),
			energy: cell(row, 2),
		})
	}
	if len(rows) == 0 {
		return nil, &FileError{File: file.Name, Source: n.source, Err: ErrNoRows}
	}
	if width < 3 {
		return nil, &FileError{File: file.Name, Source: n.source, Err: ErrMissingColumns}
	}
	return rows, nil
}

func chooseDateOrder(rows []pendingRow) (DateOrder, bool) {
	for _, order := range []DateOrder{DayFirst, MonthFirst} {
		for _, row := range rows {
			if _, ok := ParseDate(row.date, order); ok {
				return order, true
			}
		}
	}
	return DayFirst, false
}

// ParseEnergy reads a numeric cell. Anything that is not a plain decimal
// number, including comma-separated text such as "1,5", is rejected.
func ParseEnergy(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, false
	}
	return parsed, true
}

func cell(row RawRow, index int) string {
	if index >= len(row) {
		return ""
	}
	return row[index]
}

func blankRow(row RawRow) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

func fileNames(files []SourceFile) string {
	names := make([]string, 0, len(files))
	for _, file := range files {
		names = append(names, file.Name)
	}
	return strings.Join(names, ", ")
}
