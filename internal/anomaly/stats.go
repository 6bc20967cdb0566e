package anomaly

import (
	"math"
	"sort"
)

// Median of a series; NaN for an empty input.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// MedianAbsoluteDeviation is the median of absolute deviations from the
// series median, a robust spread measure insensitive to single spikes.
func MedianAbsoluteDeviation(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	median := Median(values)
	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - median)
	}
	return Median(deviations)
}
