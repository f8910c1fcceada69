package tariff

import "errors"

var (
	// ErrUnknownTier is returned for a tier outside I, II-A, II-B and III.
	ErrUnknownTier = errors.New("tariff: unknown tier")
	// ErrNoWindows is returned when a tier has no rate windows.
	ErrNoWindows = errors.New("tariff: no rate windows")
	// ErrDuplicateWindow is returned when two windows of a tier share a start date.
	ErrDuplicateWindow = errors.New("tariff: duplicate window start")
	// ErrInvalidWindow is returned for a window with a zero start or a negative rate.
	ErrInvalidWindow = errors.New("tariff: invalid window")
	// ErrInvalidPeriod is returned for a month outside 1..12 or a non-positive year.
	ErrInvalidPeriod = errors.New("tariff: invalid billing period")
)
