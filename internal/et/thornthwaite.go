// Package et implements monthly potential/reference evapotranspiration
// estimators: Thornthwaite, Hargreaves, and the FAO-56 Penman-Monteith
// formulation for a short reference crop.
package et

import (
	"fmt"
	"math"
	"time"
)

// Thornthwaite computes monthly potential evapotranspiration (mm) from mean
// temperature alone. The annual heat index is derived from the long-term
// monthly means of the input series, and each month's uncorrected PET is
// scaled by daylight length and month duration.
func Thornthwaite(tmean []float64, months []time.Month, years []int, latitude float64) ([]float64, error) {
	if len(tmean) != len(months) || len(tmean) != len(years) {
		return nil, fmt.Errorf("input lengths differ: %d tmean, %d months, %d years",
			len(tmean), len(months), len(years))
	}
	if len(tmean) == 0 {
		return nil, fmt.Errorf("empty input series")
	}

	// Annual heat index from long-term monthly mean temperatures.
	var monthSum [13]float64
	var monthCount [13]int
	for i, t := range tmean {
		if math.IsNaN(t) {
			continue
		}
		monthSum[months[i]] += t
		monthCount[months[i]]++
	}

	heatIndex := 0.0
	for m := time.January; m <= time.December; m++ {
		if monthCount[m] == 0 {
			continue
		}
		mean := monthSum[m] / float64(monthCount[m])
		if mean > 0 {
			heatIndex += math.Pow(mean/5.0, 1.514)
		}
	}

	pet := make([]float64, len(tmean))
	if heatIndex == 0 {
		// Every month freezing on average: no evaporative demand.
		return pet, nil
	}

	a := 6.75e-7*math.Pow(heatIndex, 3) -
		7.71e-5*math.Pow(heatIndex, 2) +
		1.792e-2*heatIndex + 0.49239

	for i, t := range tmean {
		if math.IsNaN(t) {
			pet[i] = math.NaN()
			continue
		}
		if t <= 0 {
			pet[i] = 0
			continue
		}

		uncorrected := 16.0 * math.Pow(10.0*t/heatIndex, a)

		// Correction for daylight length and days in month.
		n := DaylightHours(latitude, midMonthDay(months[i]))
		ndm := float64(daysInMonth(years[i], months[i]))
		pet[i] = uncorrected * (n / 12.0) * (ndm / 30.0)
	}

	return pet, nil
}
