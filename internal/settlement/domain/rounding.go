package settlement

import "math"

// RoundKWh rounds half away from zero: floor(v+0.5) for v >= 0, ceil(v-0.5) otherwise.
// Energy is always rounded with this before it meets a rate.
func RoundKWh(v float64) float64 {
	if v >= 0 {
		return math.Floor(v + 0.5)
	}
	return math.Ceil(v - 0.5)
}

// CeilAmount rounds a rupee amount up.
func CeilAmount(v float64) float64 {
	return math.Ceil(v)
}
