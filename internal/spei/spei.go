package spei

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// minFitSample is the fewest values per calendar month accepted for a
// distribution fit. Below this the moment estimates are meaningless.
const minFitSample = 8

// Options control the index computation.
type Options struct {
	Scale  int    // aggregation window in months (1 = no aggregation)
	Kernel Kernel // weighting scheme; empty means rectangular
	Shift  int    // months to delay the kernel window
}

// Result carries the standardized index plus the per-calendar-month fits so
// callers can cache them or reuse them on a fresh series.
type Result struct {
	Values []float64
	Fits   map[time.Month]Params
}

// Compute derives the standardized index from a monthly water balance series.
// The series is kernel-aggregated at the configured scale, a log-logistic
// distribution is fitted separately for each of the twelve calendar months
// across all years, and each aggregated value is mapped through its month's
// distribution function and the standard normal quantile.
func Compute(balance []float64, months []time.Month, opts Options) (*Result, error) {
	fits, err := fit(balance, months, opts)
	if err != nil {
		return nil, err
	}
	values, err := standardize(balance, months, opts, fits)
	if err != nil {
		return nil, err
	}
	return &Result{Values: values, Fits: fits}, nil
}

// ComputeWithFits standardizes a series against previously fitted
// distributions, skipping the fitting stage entirely.
func ComputeWithFits(balance []float64, months []time.Month, opts Options, fits map[time.Month]Params) ([]float64, error) {
	return standardize(balance, months, opts, fits)
}

func validate(balance []float64, months []time.Month, opts Options) error {
	if len(balance) != len(months) {
		return fmt.Errorf("series length %d does not match months length %d", len(balance), len(months))
	}
	if len(balance) < 12 {
		return fmt.Errorf("series too short for a monthly index: %d rows", len(balance))
	}
	if opts.Scale+opts.Shift > len(balance) {
		return fmt.Errorf("scale %d with shift %d exceeds series length %d", opts.Scale, opts.Shift, len(balance))
	}
	return nil
}

func fit(balance []float64, months []time.Month, opts Options) (map[time.Month]Params, error) {
	if err := validate(balance, months, opts); err != nil {
		return nil, err
	}
	weights, err := Weights(opts.Kernel, opts.Scale, opts.Shift)
	if err != nil {
		return nil, err
	}
	agg := Aggregate(balance, weights)

	// Group aggregated values by calendar month across years.
	byMonth := make(map[time.Month][]float64, 12)
	for i, v := range agg {
		if math.IsNaN(v) {
			continue
		}
		byMonth[months[i]] = append(byMonth[months[i]], v)
	}

	fits := make(map[time.Month]Params, 12)
	for m, sample := range byMonth {
		if len(sample) < minFitSample {
			return nil, fmt.Errorf("calendar month %s has only %d complete windows, need %d",
				m, len(sample), minFitSample)
		}
		params, err := FitLogLogistic(sample)
		if err != nil {
			return nil, fmt.Errorf("fitting %s: %w", m, err)
		}
		fits[m] = params
	}
	return fits, nil
}

func standardize(balance []float64, months []time.Month, opts Options, fits map[time.Month]Params) ([]float64, error) {
	if err := validate(balance, months, opts); err != nil {
		return nil, err
	}
	weights, err := Weights(opts.Kernel, opts.Scale, opts.Shift)
	if err != nil {
		return nil, err
	}
	agg := Aggregate(balance, weights)

	normal := distuv.Normal{Mu: 0, Sigma: 1}
	out := make([]float64, len(agg))
	for i, v := range agg {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		params, ok := fits[months[i]]
		if !ok {
			return nil, fmt.Errorf("no fitted distribution for %s", months[i])
		}
		out[i] = normal.Quantile(params.CDF(v))
	}
	return out, nil
}
