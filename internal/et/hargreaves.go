package et

import (
	"fmt"
	"math"
	"time"
)

// Hargreaves computes monthly reference evapotranspiration (mm) from the
// diurnal temperature range and extraterrestrial radiation. Radiation is
// converted to its evaporation equivalent (1 MJ m⁻² day⁻¹ ≈ 0.408 mm/day).
func Hargreaves(tmin, tmax []float64, months []time.Month, years []int, latitude float64) ([]float64, error) {
	if len(tmin) != len(tmax) || len(tmin) != len(months) || len(tmin) != len(years) {
		return nil, fmt.Errorf("input lengths differ: %d tmin, %d tmax, %d months, %d years",
			len(tmin), len(tmax), len(months), len(years))
	}

	et0 := make([]float64, len(tmin))
	for i := range tmin {
		if math.IsNaN(tmin[i]) || math.IsNaN(tmax[i]) {
			et0[i] = math.NaN()
			continue
		}
		if tmax[i] < tmin[i] {
			return nil, fmt.Errorf("row %d: tmax %.2f below tmin %.2f", i, tmax[i], tmin[i])
		}

		tmean := (tmax[i] + tmin[i]) / 2.0
		trange := tmax[i] - tmin[i]
		raMM := 0.408 * ExtraterrestrialRadiation(latitude, midMonthDay(months[i]))

		daily := 0.0023 * raMM * (tmean + 17.8) * math.Sqrt(trange)
		if daily < 0 {
			daily = 0
		}
		et0[i] = daily * float64(daysInMonth(years[i], months[i]))
	}

	return et0, nil
}
