package utils

import "math"

// Round2 rounds a dollar amount to two decimal places, half away from
// zero. Monetary values are computed at full precision and rounded only
// at the API boundary.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// Clamp limits value to the closed interval [lo, hi].
func Clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
