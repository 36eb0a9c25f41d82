package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/hikecast-alerts/internal/domain"
)

const (
	alertFallbackAssessment    = "📊 **Basic Safety Assessment**: Weather conditions pose significant risk. Follow safety recommendations below."
	alertDisabledAssessment    = "📊 **Safety Assessment**: Extreme weather conditions detected. Follow safety recommendations below."
	forecastFallbackAssessment = "📊 **Basic Assessment**: Check weather conditions before heading out!"

	alertTimeLayout = "Jan 2, 2006, 3:04 PM MST"
)

var daySeparator = "\n\n" + strings.Repeat("─", 40) + "\n\n"

// Priority labels the urgency of an alert message subject.
type Priority string

const (
	PriorityCritical      Priority = "CRITICAL"
	PriorityTimeSensitive Priority = "TIMING-SENSITIVE"
	PriorityHigh          Priority = "HIGH"
)

// alertPriority is CRITICAL for critical alerts without a short-duration
// window, TIMING-SENSITIVE when a short window is present, else HIGH.
func alertPriority(alerts []domain.Alert) Priority {
	short := domain.HasType(alerts, domain.AlertShortDangerousCondition)
	switch {
	case domain.HasSeverity(alerts, domain.SeverityCritical) && !short:
		return PriorityCritical
	case short:
		return PriorityTimeSensitive
	default:
		return PriorityHigh
	}
}

var severitySections = []struct {
	severity domain.Severity
	heading  string
}{
	{domain.SeverityCritical, "🔴 **CRITICAL ALERTS**:"},
	{domain.SeverityHigh, "🟡 **HIGH PRIORITY ALERTS**:"},
	{domain.SeverityMedium, "🟠 **MEDIUM PRIORITY ALERTS**:"},
	{domain.SeverityLow, "🟢 **HELPFUL INFORMATION**:"},
}

// composeAlert builds the extreme-weather message. alerts must already be
// sorted by severity. An empty assessment selects the fallback text.
func composeAlert(user domain.User, geo domain.GeoLocation, alerts []domain.Alert, assessment string, now time.Time) domain.Message {
	var b strings.Builder
	b.WriteString("🚨 **EXTREME WEATHER ALERT** 🚨\n")
	fmt.Fprintf(&b, "📍 **Location**: %s\n", geo.Label())
	fmt.Fprintf(&b, "⏰ **Alert Time**: %s\n\n", localTime(now, user.Timezone))

	for _, s := range severitySections {
		group := domain.FilterSeverity(alerts, s.severity)
		if len(group) == 0 {
			continue
		}
		b.WriteString(s.heading + "\n")
		for _, a := range group {
			b.WriteString("• " + a.Message + "\n")
		}
		b.WriteString("\n")
	}

	switch {
	case !user.EnableAIAnalysis:
		b.WriteString(alertDisabledAssessment)
	case assessment == "":
		b.WriteString(alertFallbackAssessment)
	default:
		b.WriteString("🤖 **AI Safety Analysis**:\n" + assessment)
	}
	b.WriteString("\n\n")

	b.WriteString("⚠️ **SAFETY RECOMMENDATIONS**:\n")
	for _, r := range recommendations(alerts) {
		b.WriteString("• " + r + "\n")
	}
	b.WriteString("\n📱 Stay safe and check weather updates regularly!")

	return domain.Message{
		Subject: fmt.Sprintf("🚨 EXTREME WEATHER ALERT - %s - %s PRIORITY", geo.Name, alertPriority(alerts)),
		Body:    b.String(),
	}
}

func recommendations(alerts []domain.Alert) []string {
	switch alertPriority(alerts) {
	case PriorityCritical:
		return []string{
			"Cancel all outdoor activities for the affected period",
			"Stay indoors and monitor weather updates",
			"Prepare emergency supplies",
			"Avoid travel unless absolutely necessary",
		}
	case PriorityTimeSensitive:
		recs := []string{
			"Plan activities around the short-term bad weather window",
			"Monitor real-time weather updates before departing",
			"Have emergency shelter plans for unexpected weather changes",
			"Consider shorter hikes with easy escape routes",
		}
		if domain.HasType(alerts, domain.AlertSafeHikingWindows) {
			recs = append(recs, "Take advantage of the safe hiking windows indicated above")
		}
		return recs
	default:
		return []string{
			"Exercise increased caution during outdoor activities",
			"Monitor weather conditions regularly",
			"Prepare appropriate gear for conditions",
			"Have backup plans ready",
		}
	}
}

func composeStatus(user domain.User, location string, now time.Time) domain.Message {
	var b strings.Builder
	b.WriteString("🌤️ **Weather Status Update**\n\n")
	fmt.Fprintf(&b, "📍 **Location**: %s\n", location)
	fmt.Fprintf(&b, "🔍 **Check Time**: %s\n", localTime(now, user.Timezone))
	b.WriteString("✅ **Status**: No extreme weather alerts detected\n\n")
	b.WriteString("Good news! Current weather conditions are within normal parameters for hiking and outdoor activities.\n\n")
	b.WriteString("📊 **System Status**:\n")
	b.WriteString("• Extreme weather monitoring is active\n")
	b.WriteString("• Automatic checks are running as scheduled\n")
	b.WriteString("• You'll be notified immediately if conditions change\n\n")
	b.WriteString("---\n")
	fmt.Fprintf(&b, "📱 HikeCast Weather Monitoring\n⏰ Generated: %s", now.UTC().Format(time.RFC3339))

	return domain.Message{
		Subject: "✅ HikeCast: Weather Status Update for " + location,
		Body:    b.String(),
	}
}

// composeForecastDay renders one day's section. An empty assessment selects
// the fallback, or the basic assessment when AI is disabled.
func composeForecastDay(user domain.User, day domain.ForecastDay, assessment string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 **%s, %s** (%s):\n", day.DayName, domain.FormattedDate(day.Date), day.RelativeLabel)
	fmt.Fprintf(&b, "🌡️ **Temperature**: %g°C / %g°C\n", day.TempMax, day.TempMin)
	fmt.Fprintf(&b, "🌧️ **Precipitation**: %gmm\n", day.Precipitation)
	fmt.Fprintf(&b, "☁️ **Conditions**: %s\n\n", domain.DescribeWeatherCode(day.WeatherCode))

	switch {
	case !user.EnableAIAnalysis:
		b.WriteString("📊 **Weather Summary**: " + domain.BasicAssessment(day.DayValues))
	case assessment == "":
		b.WriteString(forecastFallbackAssessment)
	default:
		fmt.Fprintf(&b, "🤖 **AI Analysis for %s**:\n%s", day.DayName, assessment)
	}
	return b.String()
}

func composeForecast(geo domain.GeoLocation, days []domain.ForecastDay, sections []string) domain.Message {
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = d.DayName
	}
	return domain.Message{
		Subject: fmt.Sprintf("🏔️ %s Hiking Weather for %s", strings.Join(names, ", "), geo.Name),
		Body:    fmt.Sprintf("🏔️ **Hiking Weather for %s**\n\n", geo.Label()) + strings.Join(sections, daySeparator),
	}
}

// localTime formats t in the named zone, falling back to UTC.
func localTime(t time.Time, tz string) string {
	loc, err := time.LoadLocation(tz)
	if tz == "" || err != nil {
		loc = time.UTC
	}
	return t.In(loc).Format(alertTimeLayout)
}
