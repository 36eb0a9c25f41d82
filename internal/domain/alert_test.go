package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortBySeverity(t *testing.T) {
	alerts := []Alert{
		{Type: AlertSafeHikingWindows, Severity: SeverityLow, Message: "low"},
		{Type: AlertHeavyPrecipitation, Severity: SeverityHigh, Message: "high-1"},
		{Type: AlertExtremeHeat, Severity: SeverityCritical, Message: "critical-1"},
		{Type: AlertShortDangerousCondition, Severity: SeverityMedium, Message: "medium"},
		{Type: AlertHeatWave, Severity: SeverityHigh, Message: "high-2"},
		{Type: AlertExtremePrecipitation, Severity: SeverityCritical, Message: "critical-2"},
	}

	sorted := SortBySeverity(alerts)

	var got []string
	for _, a := range sorted {
		got = append(got, a.Message)
	}
	assert.Equal(t, []string{"critical-1", "critical-2", "high-1", "high-2", "medium", "low"}, got)
	assert.Equal(t, "low", alerts[0].Message, "input must not be reordered")
}

func TestSeverity_Text(t *testing.T) {
	for _, s := range []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow} {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var back Severity
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, s, back)
	}

	var s Severity
	require.NoError(t, s.UnmarshalText([]byte("medium")))
	assert.Equal(t, SeverityMedium, s)
	assert.Error(t, s.UnmarshalText([]byte("urgent")))

	_, err := Severity(9).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "Severity(9)", Severity(9).String())
}

func TestAlert_JSON(t *testing.T) {
	a := Alert{
		Type:          AlertShortDangerousCondition,
		Severity:      SeverityMedium,
		Day:           "Monday",
		RelativeDay:   "Today",
		Message:       "storm",
		HourlyPattern: &HourlyPattern{DangerousHours: []int{14, 15}, DangerousDuration: 2},
	}

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "SHORT_DANGEROUS_CONDITIONS",
		"severity": "MEDIUM",
		"day": "Monday",
		"relative_day": "Today",
		"message": "storm",
		"hourly_pattern": {"dangerous_hours": [14, 15], "dangerous_duration": 2}
	}`, string(data))
}

func TestAlertHelpers(t *testing.T) {
	alerts := []Alert{
		{Type: AlertHeatWave, Severity: SeverityHigh},
		{Type: AlertExtremeHeat, Severity: SeverityCritical},
		{Type: AlertStrongWind, Severity: SeverityHigh},
	}

	assert.True(t, HasSeverity(alerts, SeverityCritical))
	assert.False(t, HasSeverity(alerts, SeverityLow))
	assert.True(t, HasType(alerts, AlertStrongWind))
	assert.False(t, HasType(alerts, AlertColdWave))
	assert.Len(t, FilterSeverity(alerts, SeverityHigh), 2)
	assert.Empty(t, FilterSeverity(alerts, SeverityMedium))
}
