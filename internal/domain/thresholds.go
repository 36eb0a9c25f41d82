package domain

import (
	"fmt"
	"slices"
)

// Thresholds is the static catalog of limits used by the Analyzer.
// Temperatures are °C, precipitation mm/day, wind km/h.
type Thresholds struct {
	ExtremeHot  float64
	ExtremeCold float64
	HeatWave    float64 // daily max at or above counts toward a heat wave
	ColdWave    float64 // daily max at or below counts toward a cold wave

	HeavyPrecipitation   float64
	ExtremePrecipitation float64

	StrongWind  float64
	ExtremeWind float64

	// DangerousCodes are WMO codes that prohibit hiking: thunderstorms,
	// heavy rain or snow, violent showers.
	DangerousCodes []int
	// SevereCodes call for extreme caution: moderate rain or snow, fog.
	SevereCodes []int

	// SustainedHours is the shortest run of dangerous hours treated as
	// sustained rather than short-duration.
	SustainedHours int

	// WaveDays is the number of consecutive days that make a wave.
	WaveDays int
}

// DefaultThresholds returns the production catalog.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ExtremeHot:           35,
		ExtremeCold:          -10,
		HeatWave:             30,
		ColdWave:             0,
		HeavyPrecipitation:   20,
		ExtremePrecipitation: 50,
		StrongWind:           50,
		ExtremeWind:          80,
		DangerousCodes:       []int{95, 96, 99, 65, 75, 82},
		SevereCodes:          []int{63, 73, 81, 45, 48},
		SustainedHours:       3,
		WaveDays:             3,
	}
}

// IsDangerous reports whether code is in the dangerous set.
func (t Thresholds) IsDangerous(code int) bool {
	return slices.Contains(t.DangerousCodes, code)
}

// IsSevere reports whether code is in the severe set.
func (t Thresholds) IsSevere(code int) bool {
	return slices.Contains(t.SevereCodes, code)
}

// IsHazardous reports whether code is in either set.
func (t Thresholds) IsHazardous(code int) bool {
	return t.IsDangerous(code) || t.IsSevere(code)
}

var weatherDescriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// DescribeWeatherCode maps a WMO weather code to a human-readable condition.
func DescribeWeatherCode(code int) string {
	if d, ok := weatherDescriptions[code]; ok {
		return d
	}
	return fmt.Sprintf("Weather code %d", code)
}
