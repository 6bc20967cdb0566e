package anomaly

import (
	"math"
	"testing"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{name: "odd length", values: []float64{5, 1, 3}, want: 3},
		{name: "even length", values: []float64{4, 1, 3, 2}, want: 2.5},
		{name: "single value", values: []float64{7}, want: 7},
		{name: "unsorted negatives", values: []float64{-3, 10, -7, 2, 0}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Median(tt.values); got != tt.want {
				t.Errorf("Median(%v) = %f, want %f", tt.values, got, tt.want)
			}
		})
	}

	if !math.IsNaN(Median(nil)) {
		t.Error("Median of empty input must be NaN")
	}
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Median(values)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("input mutated: %v", values)
	}
}

func TestMedianAbsoluteDeviation(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{name: "flat series", values: []float64{50, 50, 50, 50}, want: 0},
		{name: "symmetric spread", values: []float64{1, 2, 3, 4, 5}, want: 1},
		{name: "single spike is absorbed", values: []float64{10, 10, 10, 10, 1000}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MedianAbsoluteDeviation(tt.values); got != tt.want {
				t.Errorf("MedianAbsoluteDeviation(%v) = %f, want %f", tt.values, got, tt.want)
			}
		})
	}

	if !math.IsNaN(MedianAbsoluteDeviation(nil)) {
		t.Error("MedianAbsoluteDeviation of empty input must be NaN")
	}
}
