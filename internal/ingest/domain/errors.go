package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSource is returned for a source type outside IEX, CPP and CONSUMPTION.
	ErrUnknownSource = errors.New("ingest: unknown source type")
	// ErrNoFiles is returned when a batch holds no files.
	ErrNoFiles = errors.New("ingest: no files")
	// ErrNoRows is returned when a file holds no data rows.
	ErrNoRows = errors.New("ingest: no data rows")
	// ErrMissingColumns is returned when a file has fewer than three columns.
	ErrMissingColumns = errors.New("ingest: date, time and energy columns required")
	// ErrNoValidDates is returned when no date cell parses day-first or month-first.
	ErrNoValidDates = errors.New("ingest: no valid dates")
	// ErrInvalidMultiplier is returned for a non-positive multiplication factor.
	ErrInvalidMultiplier = errors.New("ingest: multiplier must be positive")
)

// FileError ties a normalization failure to the uploaded file that caused it.
type FileError struct {
	File   string
	Source SourceType
	Err    error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s file %q: %v", e.Source, e.File, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
