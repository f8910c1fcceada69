package spreadsheet

import (
	"bufio"
	"encoding/csv"
	"io"

	ingest "adjustment-calculator/internal/ingest/domain"
)

const utf8BOM = "\ufeff"

func readCSV(r io.Reader) ([]ingest.RawRow, error) {
	br := bufio.NewReader(r)
	if peek, err := br.Peek(len(utf8BOM)); err == nil && string(peek) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows []ingest.RawRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, ingest.RawRow(record))
	}
	return rows, nil
}
