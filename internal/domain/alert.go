package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Severity ranks alerts. Lower values are more urgent.
type Severity int

const (
	SeverityCritical Severity = iota
	SeverityHigh
	SeverityMedium
	SeverityLow
)

var severityNames = [...]string{"CRITICAL", "HIGH", "MEDIUM", "LOW"}

func (s Severity) String() string {
	if s < SeverityCritical || s > SeverityLow {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	if s < SeverityCritical || s > SeverityLow {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name, case-insensitively.
func (s *Severity) UnmarshalText(text []byte) error {
	for i, name := range severityNames {
		if strings.EqualFold(name, string(text)) {
			*s = Severity(i)
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", text)
}

// AlertType names the condition an alert reports.
type AlertType string

const (
	AlertExtremeHeat             AlertType = "EXTREME_HEAT"
	AlertExtremeCold             AlertType = "EXTREME_COLD"
	AlertExtremeWind             AlertType = "EXTREME_WIND"
	AlertStrongWind              AlertType = "STRONG_WIND"
	AlertExtremePrecipitation    AlertType = "EXTREME_PRECIPITATION"
	AlertHeavyPrecipitation      AlertType = "HEAVY_PRECIPITATION"
	AlertDangerousConditions     AlertType = "DANGEROUS_CONDITIONS"
	AlertSevereConditions        AlertType = "SEVERE_CONDITIONS"
	AlertShortDangerousCondition AlertType = "SHORT_DANGEROUS_CONDITIONS"
	AlertSafeHikingWindows       AlertType = "SAFE_HIKING_WINDOWS"
	AlertHeatWave                AlertType = "HEAT_WAVE"
	AlertColdWave                AlertType = "COLD_WAVE"
)

// HourlyPattern describes one contiguous run of dangerous hours.
type HourlyPattern struct {
	DangerousHours    []int `json:"dangerous_hours"`    // local clock hours, 0–23
	DangerousDuration int   `json:"dangerous_duration"` // hours
}

// Alert is one classified hazard. Day and RelativeDay are empty for alerts
// derived from current conditions or multi-day patterns.
type Alert struct {
	Type          AlertType      `json:"type"`
	Severity      Severity       `json:"severity"`
	Day           string         `json:"day,omitempty"`
	RelativeDay   string         `json:"relative_day,omitempty"`
	Message       string         `json:"message"`
	HourlyPattern *HourlyPattern `json:"hourly_pattern,omitempty"`
}

// SortBySeverity returns a copy of alerts ordered CRITICAL first. Alerts of
// equal severity keep their discovery order.
func SortBySeverity(alerts []Alert) []Alert {
	sorted := slices.Clone(alerts)
	slices.SortStableFunc(sorted, func(a, b Alert) int {
		return int(a.Severity) - int(b.Severity)
	})
	return sorted
}

// HasSeverity reports whether any alert has severity s.
func HasSeverity(alerts []Alert, s Severity) bool {
	return slices.ContainsFunc(alerts, func(a Alert) bool { return a.Severity == s })
}

// HasType reports whether any alert has type t.
func HasType(alerts []Alert, t AlertType) bool {
	return slices.ContainsFunc(alerts, func(a Alert) bool { return a.Type == t })
}

// FilterSeverity returns the alerts with severity s, in order.
func FilterSeverity(alerts []Alert, s Severity) []Alert {
	var out []Alert
	for _, a := range alerts {
		if a.Severity == s {
			out = append(out, a)
		}
	}
	return out
}
