package domain

// GeoLocation is a geocoded place returned by the weather gateway.
type GeoLocation struct {
	Name      string  `json:"name"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone,omitempty"`
}

// Label renders the place as "Name, Country", or just the name when the
// country is unknown.
func (g GeoLocation) Label() string {
	if g.Country == "" {
		return g.Name
	}
	return g.Name + ", " + g.Country
}

// CurrentConditions holds the observation at fetch time.
type CurrentConditions struct {
	Temperature float64 `json:"temperature"`  // °C
	WeatherCode int     `json:"weather_code"` // WMO code
	WindSpeed   float64 `json:"wind_speed"`   // km/h
}

// DailyForecast holds parallel per-day arrays. Index 0 is today.
type DailyForecast struct {
	Dates            []string  `json:"dates"` // YYYY-MM-DD in the location's timezone
	TempMax          []float64 `json:"temp_max"`
	TempMin          []float64 `json:"temp_min"`
	PrecipitationSum []float64 `json:"precipitation_sum"` // mm
	WeatherCodes     []int     `json:"weather_codes"`
}

// Len returns the number of days for which every array has a value.
func (d DailyForecast) Len() int {
	return minLen(len(d.Dates), len(d.TempMax), len(d.TempMin), len(d.PrecipitationSum), len(d.WeatherCodes))
}

// Day returns the values for day i. The caller must ensure i < Len().
func (d DailyForecast) Day(i int) DayValues {
	return DayValues{
		Index:         i,
		Date:          d.Dates[i],
		TempMax:       d.TempMax[i],
		TempMin:       d.TempMin[i],
		Precipitation: d.PrecipitationSum[i],
		WeatherCode:   d.WeatherCodes[i],
	}
}

// DayValues is one row of a DailyForecast.
type DayValues struct {
	Index         int
	Date          string
	TempMax       float64
	TempMin       float64
	Precipitation float64
	WeatherCode   int
}

// HourlyForecast holds parallel per-hour arrays, 24 entries per covered day.
type HourlyForecast struct {
	Times         []string  `json:"times"` // ISO-8601 local time, e.g. 2025-07-14T13:00
	WeatherCodes  []int     `json:"weather_codes"`
	Temperatures  []float64 `json:"temperatures,omitempty"`
	Precipitation []float64 `json:"precipitation,omitempty"`
	WindSpeeds    []float64 `json:"wind_speeds,omitempty"`
}

// DayCodes returns the 24 weather codes for day i, or false when the hourly
// data does not cover the whole day.
func (h HourlyForecast) DayCodes(day int) ([]int, bool) {
	start := day * HoursPerDay
	end := start + HoursPerDay
	if day < 0 || end > len(h.WeatherCodes) {
		return nil, false
	}
	return h.WeatherCodes[start:end], true
}

// HoursPerDay is the size of one day's hourly window.
const HoursPerDay = 24

// WeatherSnapshot is one fetched weather payload for a single location.
type WeatherSnapshot struct {
	Current *CurrentConditions `json:"current,omitempty"`
	Daily   DailyForecast      `json:"daily"`
	Hourly  HourlyForecast     `json:"hourly"`
}

// LocationWeather pairs a geocoded location with its snapshot.
type LocationWeather struct {
	Geo      GeoLocation     `json:"geo"`
	Snapshot WeatherSnapshot `json:"snapshot"`
}

func minLen(lengths ...int) int {
	if len(lengths) == 0 {
		return 0
	}
	m := lengths[0]
	for _, l := range lengths[1:] {
		if l < m {
			m = l
		}
	}
	return m
}
