package et

import (
	"math"
	"testing"
	"time"
)

func TestDaylightHours(t *testing.T) {
	tests := []struct {
		name     string
		latitude float64
		day      int
		expected float64
		epsilon  float64
	}{
		{
			name:     "equator at equinox",
			latitude: 0,
			day:      80, // ~March 21
			expected: 12.0,
			epsilon:  0.2,
		},
		{
			name:     "equator at solstice",
			latitude: 0,
			day:      172,
			expected: 12.0,
			epsilon:  0.2,
		},
		{
			name:     "mid-latitude summer is long",
			latitude: 45,
			day:      172, // ~June 21
			expected: 15.5,
			epsilon:  1.0,
		},
		{
			name:     "mid-latitude winter is short",
			latitude: 45,
			day:      355, // ~December 21
			expected: 8.7,
			epsilon:  1.0,
		},
		{
			name:     "polar summer day",
			latitude: 85,
			day:      172,
			expected: 24.0,
			epsilon:  0.01,
		},
		{
			name:     "polar winter night",
			latitude: 85,
			day:      355,
			expected: 0.0,
			epsilon:  0.01,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DaylightHours(tt.latitude, tt.day)
			if math.Abs(got-tt.expected) > tt.epsilon {
				t.Errorf("expected %.2f ± %.2f hours, got %.2f", tt.expected, tt.epsilon, got)
			}
		})
	}
}

func TestDaylightHemisphereSymmetry(t *testing.T) {
	// A June day at 40°N should mirror a December day at 40°S.
	north := DaylightHours(40, 172)
	south := DaylightHours(-40, 355)
	if math.Abs(north-south) > 0.3 {
		t.Errorf("hemisphere asymmetry: %.2f north vs %.2f south", north, south)
	}
}

func TestExtraterrestrialRadiation(t *testing.T) {
	// At the equator on an equinox Ra peaks in the high 30s MJ m⁻² day⁻¹.
	ra := ExtraterrestrialRadiation(0, 80)
	if ra < 35 || ra > 39 {
		t.Errorf("equatorial equinox Ra out of range: %.2f", ra)
	}

	// Polar night yields no radiation.
	if ra := ExtraterrestrialRadiation(85, 355); ra > 0.5 {
		t.Errorf("polar night Ra should be ~0, got %.2f", ra)
	}

	// Mid-latitude summer exceeds mid-latitude winter severalfold.
	summer := ExtraterrestrialRadiation(45, 172)
	winter := ExtraterrestrialRadiation(45, 355)
	if summer <= 2*winter {
		t.Errorf("expected summer Ra >> winter Ra, got %.2f vs %.2f", summer, winter)
	}
}

func TestMidMonthDay(t *testing.T) {
	tests := []struct {
		month    time.Month
		expected int
	}{
		{time.January, 15},
		{time.June, 167},
		{time.December, 349},
	}
	for _, tt := range tests {
		if got := midMonthDay(tt.month); got != tt.expected {
			t.Errorf("midMonthDay(%s): expected %d, got %d", tt.month, tt.expected, got)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year     int
		month    time.Month
		expected int
	}{
		{1990, time.January, 31},
		{1990, time.February, 28},
		{1992, time.February, 29},
		{2000, time.February, 29},
		{1900, time.February, 28},
		{1990, time.April, 30},
	}
	for _, tt := range tests {
		if got := daysInMonth(tt.year, tt.month); got != tt.expected {
			t.Errorf("daysInMonth(%d, %s): expected %d, got %d", tt.year, tt.month, tt.expected, got)
		}
	}
}
