// Package spei computes the Standardized Precipitation-Evapotranspiration
// Index from a monthly climatic water balance series: kernel-weighted
// aggregation over the time scale, a three-parameter log-logistic fit via
// unbiased probability-weighted moments, and standardization through the
// normal quantile function.
package spei

import (
	"fmt"
	"math"
	"sort"
)

// unbiasedPWMs returns the first three unbiased probability-weighted moments
// (b0, b1, b2) of a sample. The input is copied and sorted ascending.
func unbiasedPWMs(sample []float64) (b0, b1, b2 float64, err error) {
	n := len(sample)
	if n < 4 {
		return 0, 0, 0, fmt.Errorf("need at least 4 values for probability-weighted moments, got %d", n)
	}

	sorted := append([]float64(nil), sample...)
	sort.Float64s(sorted)

	fn := float64(n)
	for i, x := range sorted {
		fi := float64(i) // rank − 1
		b0 += x
		b1 += x * fi / (fn - 1)
		b2 += x * fi * (fi - 1) / ((fn - 1) * (fn - 2))
	}
	b0 /= fn
	b1 /= fn
	b2 /= fn

	if math.IsNaN(b0) || math.IsNaN(b1) || math.IsNaN(b2) {
		return 0, 0, 0, fmt.Errorf("sample contains NaN values")
	}
	return b0, b1, b2, nil
}
