package domain

import (
	"fmt"
	"strings"
)

const (
	perDayHorizon    = 3
	multiDayHorizon  = 7
	maxForecastDays  = 7
	dangerousAdvice  = "hiking PROHIBITED"
	severeAdvice     = "extreme caution required"
	shortRunAdvice   = "plan around this window"
	safeWindowAdvice = "good conditions for outdoor activities"
)

// Analyzer classifies weather snapshots into alerts using a fixed catalog.
// It holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	thresholds Thresholds
}

// NewAnalyzer creates an Analyzer over the given catalog.
func NewAnalyzer(t Thresholds) *Analyzer {
	return &Analyzer{thresholds: t}
}

// Analyze scans a snapshot and returns alerts in discovery order: current
// conditions (temperature, plus STRONG_WIND or EXTREME_WIND from the current
// wind speed), then per-day checks for the first three days, then multi-day
// waves. Missing or inconsistent sections skip the checks that need them.
// The location is used only for message text.
func (a *Analyzer) Analyze(s WeatherSnapshot, location string) []Alert {
	var alerts []Alert
	alerts = append(alerts, a.currentAlerts(s.Current)...)

	days := s.Daily.Len()
	if days == 0 {
		return alerts
	}
	for i := range min(perDayHorizon, days) {
		alerts = append(alerts, a.dayAlerts(s.Daily.Day(i), s.Hourly)...)
	}
	if wave, ok := a.waveAlert(s.Daily, location); ok {
		alerts = append(alerts, wave)
	}
	return alerts
}

// Analyze runs the default catalog over a snapshot.
func Analyze(s WeatherSnapshot, location string) []Alert {
	return NewAnalyzer(DefaultThresholds()).Analyze(s, location)
}

func (a *Analyzer) currentAlerts(c *CurrentConditions) []Alert {
	if c == nil {
		return nil
	}
	t := a.thresholds
	var alerts []Alert

	switch {
	case c.Temperature >= t.ExtremeHot:
		alerts = append(alerts, Alert{
			Type:     AlertExtremeHeat,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("🔥 EXTREME HEAT WARNING: %g°C now - hiking NOT recommended", c.Temperature),
		})
	case c.Temperature <= t.ExtremeCold:
		alerts = append(alerts, Alert{
			Type:     AlertExtremeCold,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("🥶 EXTREME COLD WARNING: %g°C now - risk of hypothermia", c.Temperature),
		})
	}

	switch {
	case c.WindSpeed >= t.ExtremeWind:
		alerts = append(alerts, Alert{
			Type:     AlertExtremeWind,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("🌪️ EXTREME WIND WARNING: %g km/h now - avoid exposed ridges and summits", c.WindSpeed),
		})
	case c.WindSpeed >= t.StrongWind:
		alerts = append(alerts, Alert{
			Type:     AlertStrongWind,
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("💨 STRONG WIND: %g km/h now - take care on exposed terrain", c.WindSpeed),
		})
	}
	return alerts
}

func (a *Analyzer) dayAlerts(d DayValues, hourly HourlyForecast) []Alert {
	t := a.thresholds
	dayName := DayName(d.Date)
	rel := RelativeDayLabel(d.Index)
	newAlert := func(typ AlertType, sev Severity, msg string) Alert {
		return Alert{Type: typ, Severity: sev, Day: dayName, RelativeDay: rel, Message: msg}
	}

	var alerts []Alert
	if d.TempMax >= t.ExtremeHot {
		alerts = append(alerts, newAlert(AlertExtremeHeat, SeverityHigh,
			fmt.Sprintf("🔥 HEAT WARNING %s: %g°C expected - high heat exhaustion risk", rel, d.TempMax)))
	}
	if d.TempMin <= t.ExtremeCold {
		alerts = append(alerts, newAlert(AlertExtremeCold, SeverityHigh,
			fmt.Sprintf("🥶 COLD WARNING %s: %g°C expected - hypothermia risk", rel, d.TempMin)))
	}

	switch {
	case d.Precipitation >= t.ExtremePrecipitation:
		alerts = append(alerts, newAlert(AlertExtremePrecipitation, SeverityCritical,
			fmt.Sprintf("🌊 EXTREME RAIN WARNING %s: %gmm expected - flash flood risk", rel, d.Precipitation)))
	case d.Precipitation >= t.HeavyPrecipitation:
		alerts = append(alerts, newAlert(AlertHeavyPrecipitation, SeverityHigh,
			fmt.Sprintf("🌧️ HEAVY RAIN WARNING %s: %gmm expected - trail flooding possible", rel, d.Precipitation)))
	}

	return append(alerts, a.conditionAlerts(d, hourly, newAlert)...)
}

// conditionAlerts produces the single code-based verdict for a day: a
// day-level dangerous alert, a short-duration pair, a severe alert, or nothing.
// When every dangerous hourly run is shorter than SustainedHours, timing
// advice replaces the day-level verdict. A sustained run leaves the verdict to
// the daily code, so hourly data alone never raises a prohibition.
func (a *Analyzer) conditionAlerts(d DayValues, hourly HourlyForecast, newAlert func(AlertType, Severity, string) Alert) []Alert {
	t := a.thresholds
	rel := d.relativeLabel()

	dangerous := func(code int) []Alert {
		return []Alert{newAlert(AlertDangerousConditions, SeverityCritical,
			fmt.Sprintf("⛈️ DANGEROUS CONDITIONS %s: %s - %s", rel, DescribeWeatherCode(code), dangerousAdvice))}
	}

	codes, ok := hourly.DayCodes(d.Index)
	if ok {
		p := classifyHours(codes, t)
		switch {
		case p.hasSustained(t.SustainedHours):
			// Sustained danger keeps the daily-code verdict below.
		case len(p.dangerous) > 0:
			return a.shortDurationAlerts(codes, p, rel, newAlert)
		}
	}

	switch {
	case t.IsDangerous(d.WeatherCode):
		return dangerous(d.WeatherCode)
	case t.IsSevere(d.WeatherCode):
		return []Alert{newAlert(AlertSevereConditions, SeverityHigh,
			fmt.Sprintf("⚠️ SEVERE CONDITIONS %s: %s - %s", rel, DescribeWeatherCode(d.WeatherCode), severeAdvice))}
	}
	return nil
}

func (a *Analyzer) shortDurationAlerts(codes []int, p dayHourlyPattern, rel string, newAlert func(AlertType, Severity, string) Alert) []Alert {
	alerts := make([]Alert, 0, len(p.dangerous)+1)
	for _, run := range p.dangerous {
		condition := strings.ToUpper(DescribeWeatherCode(codes[run.Start]))
		alert := newAlert(AlertShortDangerousCondition, SeverityMedium,
			fmt.Sprintf("⚠️ SHORT-TERM %s %s: expected %s (%dh) - %s", condition, rel, run, run.Duration(), shortRunAdvice))
		alert.HourlyPattern = &HourlyPattern{
			DangerousHours:    run.Hours(),
			DangerousDuration: run.Duration(),
		}
		alerts = append(alerts, alert)
	}
	if len(p.safe) > 0 {
		alerts = append(alerts, newAlert(AlertSafeHikingWindows, SeverityLow,
			fmt.Sprintf("✅ SAFE HIKING WINDOWS %s: %s - %s", rel, FormatRuns(p.safe), safeWindowAdvice)))
	}
	return alerts
}

// waveAlert reports the first run of WaveDays consecutive hot or cold days
// within the first week.
func (a *Analyzer) waveAlert(d DailyForecast, location string) (Alert, bool) {
	t := a.thresholds
	hot, cold := 0, 0
	for i := range min(multiDayHorizon, d.Len()) {
		if d.TempMax[i] >= t.HeatWave {
			hot++
		} else {
			hot = 0
		}
		if d.TempMax[i] <= t.ColdWave {
			cold++
		} else {
			cold = 0
		}

		if hot >= t.WaveDays {
			return Alert{
				Type:     AlertHeatWave,
				Severity: SeverityHigh,
				Message:  fmt.Sprintf("🔥 HEAT WAVE ALERT%s: %d consecutive days at or above %g°C", near(location), hot, t.HeatWave),
			}, true
		}
		if cold >= t.WaveDays {
			return Alert{
				Type:     AlertColdWave,
				Severity: SeverityHigh,
				Message:  fmt.Sprintf("🥶 COLD WAVE ALERT%s: %d consecutive days at or below %g°C", near(location), cold, t.ColdWave),
			}, true
		}
	}
	return Alert{}, false
}

func (d DayValues) relativeLabel() string { return RelativeDayLabel(d.Index) }

func near(location string) string {
	if location == "" {
		return ""
	}
	return " for " + location
}
