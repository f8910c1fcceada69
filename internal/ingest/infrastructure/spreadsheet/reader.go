package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	ingest "adjustment-calculator/internal/ingest/domain"
)

// ErrUnsupportedFormat is returned for files that are neither xlsx nor csv.
var ErrUnsupportedFormat = errors.New("spreadsheet: unsupported file format")

// Read decodes an uploaded file by extension. The first row is a header and is skipped.
func Read(name string, r io.Reader) (ingest.SourceFile, error) {
	var (
		rows []ingest.RawRow
		err  error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(r)
	case ".csv", ".txt":
		rows, err = readCSV(r)
	default:
		return ingest.SourceFile{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if err != nil {
		return ingest.SourceFile{}, fmt.Errorf("read %s: %w", name, err)
	}
	if len(rows) > 0 {
		rows = rows[1:]
	}
	return ingest.SourceFile{Name: name, Rows: rows}, nil
}

// ReadFile opens and decodes a file from disk.
func ReadFile(path string) (ingest.SourceFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return ingest.SourceFile{}, err
	}
	defer f.Close()
	return Read(filepath.Base(path), f)
}

// ReadFiles decodes several files of the same source in order.
func ReadFiles(paths []string) ([]ingest.SourceFile, error) {
	files := make([]ingest.SourceFile, 0, len(paths))
	for _, path := range paths {
		file, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}
