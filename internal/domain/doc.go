// Package domain models hiking-relevant weather and the rules that turn it
// into alerts.
//
// # Data Source
//
// Forecasts come from the Open-Meteo API (https://open-meteo.com/). A place
// name is geocoded first, then the forecast endpoint returns current
// conditions plus hourly and daily arrays in the location's own timezone
// (timezone=auto). The gateway normalizes the payload into a [WeatherSnapshot].
//
// # Open-Meteo Conventions
//
// Arrays are parallel and chronological:
//
//	daily.time[i], daily.temperature_2m_max[i], ...   index 0 = today
//	hourly.time[h], hourly.weather_code[h], ...       24 entries per day
//
// Hourly entry h belongs to day h/24 and clock hour h%24, so day d's window
// is hourly[d*24 : d*24+24]. A day whose window is incomplete is skipped by
// the hourly checks.
//
// Units: temperature °C, precipitation mm, wind speed km/h.
//
// # WMO Weather Codes
//
// Condition codes follow WMO 4677 as used by Open-Meteo:
//
//	0–3    clear to overcast
//	45,48  fog
//	51–55  drizzle
//	61–65  rain (slight, moderate, heavy)
//	71–75  snow fall (slight, moderate, heavy)
//	80–82  rain showers (slight, moderate, violent)
//	95–99  thunderstorm, optionally with hail
//
// The [Thresholds] catalog partitions them into a dangerous set
// (95, 96, 99, 65, 75, 82) and a severe set (63, 73, 81, 45, 48). Codes in
// neither set never raise an alert.
//
// # Severity
//
// Four levels with a total order: CRITICAL < HIGH < MEDIUM < LOW, where lower
// is more urgent. [SortBySeverity] is stable, so alerts of equal severity keep
// the order in which the analyzer found them.
//
// # Short-Duration Windows
//
// A contiguous run of dangerous hours shorter than SustainedHours (3) does
// not prohibit hiking for the whole day. The analyzer instead reports the
// run as timing advice and lists the remaining hazard-free ranges as safe
// hiking windows. A sustained run keeps the day-level prohibition.
//
// # ID Generation
//
// Alert event IDs are SHA-256 hashes of user|location|type|day|message|hour.
// Replays of the same check within an hour yield the same ID, so consumers
// can deduplicate without coordination. See [NewAlertEvents].
package domain
