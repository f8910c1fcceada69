package settlement

import "errors"

var (
	// ErrNegativeValue is returned when an excess quantity or rate is negative.
	ErrNegativeValue = errors.New("settlement: negative value")
	// ErrNotFinite is returned when an input is NaN or infinite.
	ErrNotFinite = errors.New("settlement: non-finite value")
	// ErrInvalidLoss is returned for a wheeling loss percentage outside [0, 100].
	ErrInvalidLoss = errors.New("settlement: loss percentage must be between 0 and 100")
)
