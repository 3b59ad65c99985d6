package et

import (
	"fmt"
	"math"
	"time"
)

const (
	stefanBoltzmann = 4.903e-9 // MJ K⁻⁴ m⁻² day⁻¹
	albedo          = 0.23     // reference crop albedo

	// Default Ångström coefficients for estimating solar radiation from
	// sunshine duration where no locally calibrated values exist.
	DefaultAngstromA = 0.25
	DefaultAngstromB = 0.50
)

// PenmanInput bundles the series and site parameters for the FAO-56
// Penman-Monteith reference evapotranspiration calculation.
type PenmanInput struct {
	TempMin    []float64 // °C
	TempMax    []float64 // °C
	WindSpeed  []float64 // m/s at WindHeight
	SunHours   []float64 // mean daily bright sunshine, hours; NaN to fall back to cloud cover
	CloudCover []float64 // mean cloud cover %, used when SunHours is NaN
	Months     []time.Month
	Years      []int

	Latitude   float64 // degrees, south negative
	Altitude   float64 // metres above sea level
	WindHeight float64 // measurement height in metres; 0 means 2 m
	AngstromA  float64 // 0 means DefaultAngstromA
	AngstromB  float64 // 0 means DefaultAngstromB
}

// saturationVaporPressure returns e°(T) in kPa.
func saturationVaporPressure(tempC float64) float64 {
	return 0.6108 * math.Exp(17.27*tempC/(tempC+237.3))
}

// PenmanMonteith computes monthly FAO-56 reference evapotranspiration (mm)
// for a short, well-watered grass reference crop. With no humidity
// observations in the dataset, actual vapour pressure is approximated by the
// saturation pressure at the minimum temperature. Shortwave radiation comes
// from sunshine duration via the Ångström relation, with cloud cover as a
// fallback sunshine-fraction estimate.
func PenmanMonteith(in PenmanInput) ([]float64, error) {
	n := len(in.TempMin)
	if len(in.TempMax) != n || len(in.WindSpeed) != n || len(in.SunHours) != n ||
		len(in.CloudCover) != n || len(in.Months) != n || len(in.Years) != n {
		return nil, fmt.Errorf("input series lengths differ")
	}
	if n == 0 {
		return nil, fmt.Errorf("empty input series")
	}

	as := in.AngstromA
	if as == 0 {
		as = DefaultAngstromA
	}
	bs := in.AngstromB
	if bs == 0 {
		bs = DefaultAngstromB
	}

	// Atmospheric pressure and psychrometric constant from site elevation.
	pressure := 101.3 * math.Pow((293.0-0.0065*in.Altitude)/293.0, 5.26)
	gamma := 0.000665 * pressure

	// Wind measured above 2 m gets adjusted down with the log wind profile.
	windFactor := 1.0
	if in.WindHeight > 0 && in.WindHeight != 2.0 {
		windFactor = 4.87 / math.Log(67.8*in.WindHeight-5.42)
	}

	// Monthly mean temperatures, needed for the soil heat flux terms.
	tmean := make([]float64, n)
	for i := range tmean {
		tmean[i] = (in.TempMax[i] + in.TempMin[i]) / 2.0
	}

	et0 := make([]float64, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(in.TempMin[i]) || math.IsNaN(in.TempMax[i]) || math.IsNaN(in.WindSpeed[i]) {
			et0[i] = math.NaN()
			continue
		}

		t := tmean[i]
		j := midMonthDay(in.Months[i])

		// Slope of the saturation vapour pressure curve at mean temperature.
		delta := 4098.0 * saturationVaporPressure(t) / math.Pow(t+237.3, 2)

		// Vapour pressure terms. ea from Tmin stands in for missing humidity.
		es := (saturationVaporPressure(in.TempMax[i]) + saturationVaporPressure(in.TempMin[i])) / 2.0
		ea := saturationVaporPressure(in.TempMin[i])
		if ea > es {
			ea = es
		}

		// Shortwave radiation via the Ångström relation.
		ra := ExtraterrestrialRadiation(in.Latitude, j)
		nMax := DaylightHours(in.Latitude, j)
		sunFraction := sunshineFraction(in.SunHours[i], in.CloudCover[i], nMax)
		rs := (as + bs*sunFraction) * ra

		// Clear-sky radiation, bounded away from zero near polar night.
		rso := (0.75 + 2e-5*in.Altitude) * ra
		relShortwave := 1.0
		if rso > 0 {
			relShortwave = rs / rso
			if relShortwave > 1 {
				relShortwave = 1
			}
		}

		// Net radiation.
		rns := (1 - albedo) * rs
		tmaxK := in.TempMax[i] + 273.16
		tminK := in.TempMin[i] + 273.16
		rnl := stefanBoltzmann * (math.Pow(tmaxK, 4) + math.Pow(tminK, 4)) / 2.0 *
			(0.34 - 0.14*math.Sqrt(ea)) * (1.35*relShortwave - 0.35)
		rn := rns - rnl

		// Soil heat flux for monthly periods from the temperature trend.
		g := soilHeatFlux(tmean, i)

		u2 := in.WindSpeed[i] * windFactor

		daily := (0.408*delta*(rn-g) + gamma*900.0/(t+273.0)*u2*(es-ea)) /
			(delta + gamma*(1+0.34*u2))
		if daily < 0 {
			daily = 0
		}
		et0[i] = daily * float64(daysInMonth(in.Years[i], in.Months[i]))
	}

	return et0, nil
}

// sunshineFraction returns n/N from sunshine hours where available, falling
// back to (1 − cloud/100) when only cloud cover was observed.
func sunshineFraction(sunHours, cloudPct, maxDaylight float64) float64 {
	if !math.IsNaN(sunHours) && maxDaylight > 0 {
		f := sunHours / maxDaylight
		if f > 1 {
			f = 1
		} else if f < 0 {
			f = 0
		}
		return f
	}
	if !math.IsNaN(cloudPct) {
		f := 1.0 - cloudPct/100.0
		if f > 1 {
			f = 1
		} else if f < 0 {
			f = 0
		}
		return f
	}
	// Nothing observed: assume average cloudiness.
	return 0.5
}

// soilHeatFlux estimates monthly soil heat flux (MJ m⁻² day⁻¹) from the mean
// temperature of the surrounding months (FAO-56 eqs. 43-44).
func soilHeatFlux(tmean []float64, i int) float64 {
	switch {
	case i > 0 && i < len(tmean)-1 && !math.IsNaN(tmean[i-1]) && !math.IsNaN(tmean[i+1]):
		return 0.07 * (tmean[i+1] - tmean[i-1])
	case i > 0 && !math.IsNaN(tmean[i-1]):
		return 0.14 * (tmean[i] - tmean[i-1])
	default:
		return 0
	}
}
