package et

import (
	"math"
	"time"
)

// Solar geometry used by the radiation-based estimators, following the FAO-56
// monthly formulation. Angles are in radians unless noted.

const (
	solarConstant = 0.0820 // MJ m⁻² min⁻¹
	degToRad      = math.Pi / 180.0
)

// midMonthDay returns the representative day of year for a calendar month
// (FAO-56 recommends J = 30.4 M − 15 for monthly calculations).
func midMonthDay(m time.Month) int {
	return int(30.4*float64(m) - 15.0)
}

// daysInMonth returns the number of days in the given month, accounting for
// leap years.
func daysInMonth(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// inverseRelativeDistance is the correction for the Earth–Sun distance on day
// j of the year.
func inverseRelativeDistance(j int) float64 {
	return 1 + 0.033*math.Cos(2*math.Pi/365.0*float64(j))
}

// solarDeclination returns the solar declination on day j of the year.
func solarDeclination(j int) float64 {
	return 0.409 * math.Sin(2*math.Pi/365.0*float64(j)-1.39)
}

// sunsetHourAngle returns the sunset hour angle for a latitude and
// declination. The argument to acos is clamped so polar latitudes resolve to
// permanent day (π) or permanent night (0) instead of NaN.
func sunsetHourAngle(latRad, decl float64) float64 {
	x := -math.Tan(latRad) * math.Tan(decl)
	if x < -1 {
		x = -1
	} else if x > 1 {
		x = 1
	}
	return math.Acos(x)
}

// ExtraterrestrialRadiation returns Ra in MJ m⁻² day⁻¹ for a latitude
// (degrees) on day j of the year.
func ExtraterrestrialRadiation(latitude float64, j int) float64 {
	latRad := latitude * degToRad
	dr := inverseRelativeDistance(j)
	decl := solarDeclination(j)
	ws := sunsetHourAngle(latRad, decl)

	return 24 * 60 / math.Pi * solarConstant * dr *
		(ws*math.Sin(latRad)*math.Sin(decl) + math.Cos(latRad)*math.Cos(decl)*math.Sin(ws))
}

// DaylightHours returns the maximum possible sunshine duration (hours) for a
// latitude (degrees) on day j of the year.
func DaylightHours(latitude float64, j int) float64 {
	return 24 / math.Pi * sunsetHourAngle(latitude*degToRad, solarDeclination(j))
}
