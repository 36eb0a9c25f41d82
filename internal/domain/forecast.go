package domain

import (
	"slices"
	"strings"
)

// ForecastDay is one day selected for a routine notification.
type ForecastDay struct {
	DayValues
	DayName       string
	RelativeLabel string
}

// Label renders "Saturday (Tomorrow)".
func (f ForecastDay) Label() string {
	return f.DayName + " (" + f.RelativeLabel + ")"
}

// SelectForecastDays picks the days a user asked for. Named weekdays are
// matched against the first week of the forecast; otherwise the legacy
// single-day index is used, clamped into range.
func SelectForecastDays(d DailyForecast, u User) []ForecastDay {
	n := d.Len()
	if n == 0 {
		return nil
	}
	newDay := func(i int) ForecastDay {
		v := d.Day(i)
		return ForecastDay{DayValues: v, DayName: DayName(v.Date), RelativeLabel: RelativeDayLabel(i)}
	}

	if len(u.ForecastDays) > 0 {
		var days []ForecastDay
		for i := range min(maxForecastDays, n) {
			if slices.Contains(u.ForecastDays, DayName(d.Dates[i])) {
				days = append(days, newDay(i))
			}
		}
		return days
	}

	idx := DefaultForecastDay
	if u.ForecastDay != nil {
		idx = *u.ForecastDay
	}
	idx = max(0, min(idx, n-1))
	return []ForecastDay{newDay(idx)}
}

// BasicAssessment summarizes a day without AI: temperature comfort,
// precipitation, then the condition class.
func BasicAssessment(d DayValues) string {
	var b strings.Builder

	switch {
	case d.TempMax >= 25:
		b.WriteString("Warm weather ideal for hiking. ")
	case d.TempMax >= 15:
		b.WriteString("Pleasant temperatures for outdoor activities. ")
	case d.TempMax >= 5:
		b.WriteString("Cool weather, dress warmly. ")
	default:
		b.WriteString("Cold conditions, ensure proper winter gear. ")
	}

	switch {
	case d.Precipitation > 10:
		b.WriteString("Heavy rain expected - consider postponing outdoor plans.")
	case d.Precipitation > 2:
		b.WriteString("Light to moderate rain - pack waterproof gear.")
	case d.Precipitation > 0:
		b.WriteString("Minimal precipitation expected.")
	default:
		b.WriteString("Dry conditions expected.")
	}

	switch code := d.WeatherCode; {
	case code >= 95:
		b.WriteString(" Thunderstorms forecasted - stay indoors.")
	case code >= 80:
		b.WriteString(" Rain showers likely.")
	case code >= 70:
		b.WriteString(" Snow conditions expected.")
	case code >= 60:
		b.WriteString(" Rainy weather ahead.")
	case code <= 3:
		b.WriteString(" Clear to partly cloudy skies.")
	}
	return b.String()
}
