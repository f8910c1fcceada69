package statistic

import "errors"

var (
	// ErrInvalidPeriod is returned when a rollup month or year is out of range or only half set.
	ErrInvalidPeriod = errors.New("statistic: invalid period")
)
