package spei

import (
	"fmt"
	"math"
)

// Kernel selects the weighting scheme applied across months when aggregating
// the water balance over a multi-month window.
type Kernel string

const (
	// Rectangular weights every month in the window equally.
	Rectangular Kernel = "rectangular"
	// Triangular weights decay linearly with lag.
	Triangular Kernel = "triangular"
	// Circular weights follow a quarter-circle decay with lag.
	Circular Kernel = "circular"
	// Gaussian weights follow a half-normal decay over three standard
	// deviations across the window.
	Gaussian Kernel = "gaussian"
)

// Weights returns normalized kernel weights for a time scale, most recent
// month first: w[0] applies to the current month, w[j] to the month j steps
// back. A positive shift delays the window by zeroing the most recent months.
func Weights(kind Kernel, scale, shift int) ([]float64, error) {
	if scale < 1 {
		return nil, fmt.Errorf("scale must be at least 1, got %d", scale)
	}
	if shift < 0 {
		return nil, fmt.Errorf("shift must not be negative, got %d", shift)
	}

	s := scale + shift
	w := make([]float64, s)
	for j := 0; j < s; j++ {
		switch kind {
		case Rectangular, "":
			w[j] = 1
		case Triangular:
			w[j] = float64(s - j)
		case Circular:
			w[j] = float64(s*s) + 1 - float64((j+1)*(j+1))
		case Gaussian:
			var z float64
			if s > 1 {
				z = 3.0 * float64(j) / float64(s-1)
			}
			w[j] = math.Exp(-z * z / 2)
		default:
			return nil, fmt.Errorf("unknown kernel %q", kind)
		}
	}

	for j := 0; j < shift; j++ {
		w[j] = 0
	}

	sum := 0.0
	for _, v := range w {
		sum += v
	}
	if sum == 0 {
		return nil, fmt.Errorf("kernel %q with scale %d shift %d has zero mass", kind, scale, shift)
	}
	for j := range w {
		w[j] /= sum
	}
	return w, nil
}

// Aggregate applies kernel weights to a series as a rolling weighted sum,
// scaled by the window length so a rectangular kernel yields the plain
// multi-month total. Rows without a complete window, and windows containing
// NaN, yield NaN.
func Aggregate(series, weights []float64) []float64 {
	n := len(series)
	w := len(weights)
	out := make([]float64, n)

	for t := 0; t < n; t++ {
		if t < w-1 {
			out[t] = math.NaN()
			continue
		}
		sum := 0.0
		for j := 0; j < w; j++ {
			v := series[t-j]
			if math.IsNaN(v) {
				sum = math.NaN()
				break
			}
			sum += weights[j] * v
		}
		out[t] = sum * float64(w)
	}
	return out
}
