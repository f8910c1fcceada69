package reconciliation

import (
	"errors"
	"fmt"
	"strings"

	ingest "adjustment-calculator/internal/ingest/domain"
)

var (
	// ErrNoGenerationSource is returned when neither IEX nor CPP is supplied.
	ErrNoGenerationSource = errors.New("reconciliation: no generation source enabled")
	// ErrInvalidLoss is returned for a loss percentage outside [0, 100].
	ErrInvalidLoss = errors.New("reconciliation: loss percentage must be between 0 and 100")
	// ErrEmptyAfterFilter is returned when a source has no rows left after filtering.
	ErrEmptyAfterFilter = errors.New("reconciliation: no data after filtering")
	// ErrInvalidFilter is returned for an unparseable date, month or year filter.
	ErrInvalidFilter = errors.New("reconciliation: invalid filter")
)

// EmptyFilterError names the source that became empty and the dates it does hold.
type EmptyFilterError struct {
	Source          ingest.SourceType
	Filter          Filter
	AvailableDates  []string
	AvailableMonths []string
}

func (e *EmptyFilterError) Error() string {
	msg := fmt.Sprintf("no %s data for %s", e.Source, e.Filter)
	if len(e.AvailableDates) > 0 {
		msg += "; available dates: " + strings.Join(e.AvailableDates, ", ")
	}
	return msg
}

func (e *EmptyFilterError) Unwrap() error { return ErrEmptyAfterFilter }

// FilterError reports a malformed filter value.
type FilterError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid %s filter %q: %s", e.Field, e.Value, e.Reason)
}

func (e *FilterError) Unwrap() error { return ErrInvalidFilter }
