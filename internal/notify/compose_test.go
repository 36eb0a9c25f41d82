package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/hikecast-alerts/internal/domain"
)

func TestAlertPriority(t *testing.T) {
	shortRun := domain.Alert{Type: domain.AlertShortDangerousCondition, Severity: domain.SeverityMedium}
	safe := domain.Alert{Type: domain.AlertSafeHikingWindows, Severity: domain.SeverityLow}

	tests := []struct {
		name   string
		alerts []domain.Alert
		want   Priority
	}{
		{"critical", []domain.Alert{critical(), high()}, PriorityCritical},
		{"short window", []domain.Alert{shortRun, safe}, PriorityTimeSensitive},
		{"short window beats critical", []domain.Alert{critical(), shortRun}, PriorityTimeSensitive},
		{"high only", []domain.Alert{high()}, PriorityHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, alertPriority(tt.alerts))
		})
	}
}

func TestRecommendations_SafeWindows(t *testing.T) {
	shortRun := domain.Alert{Type: domain.AlertShortDangerousCondition, Severity: domain.SeverityMedium}
	safe := domain.Alert{Type: domain.AlertSafeHikingWindows, Severity: domain.SeverityLow}

	withSafe := recommendations([]domain.Alert{shortRun, safe})
	withoutSafe := recommendations([]domain.Alert{shortRun})

	assert.Len(t, withSafe, 5)
	assert.Len(t, withoutSafe, 4)
	assert.Contains(t, withSafe, "Take advantage of the safe hiking windows indicated above")
}

func TestAlertChannels(t *testing.T) {
	user := domain.User{Channels: []domain.Channel{domain.ChannelWhatsApp}}

	assert.Equal(t, []domain.Channel{domain.ChannelWhatsApp}, alertChannels(user, []domain.Alert{high()}))
	assert.Equal(t,
		[]domain.Channel{domain.ChannelTelegram, domain.ChannelEmail, domain.ChannelWhatsApp},
		alertChannels(user, []domain.Alert{high(), critical()}))
}

func TestComposeAlert_SeverityGroups(t *testing.T) {
	alerts := domain.SortBySeverity([]domain.Alert{
		{Severity: domain.SeverityLow, Message: "windows"},
		{Severity: domain.SeverityMedium, Message: "short"},
	})

	msg := composeAlert(domain.User{EnableAIAnalysis: true}, testGeo, alerts, "", time.Date(2025, 7, 14, 8, 30, 0, 0, time.UTC))

	assert.NotContains(t, msg.Body, "CRITICAL ALERTS")
	assert.Contains(t, msg.Body, "🟠 **MEDIUM PRIORITY ALERTS**:\n• short\n")
	assert.Contains(t, msg.Body, "🟢 **HELPFUL INFORMATION**:\n• windows\n")
	assert.Contains(t, msg.Body, "Jul 14, 2025, 8:30 AM UTC")
	assert.Contains(t, msg.Subject, "HIGH PRIORITY")
}

func TestLocalTime_InvalidZone(t *testing.T) {
	ts := time.Date(2025, 1, 2, 15, 4, 0, 0, time.UTC)
	assert.Equal(t, "Jan 2, 2025, 3:04 PM UTC", localTime(ts, "Nowhere/City"))
	assert.Equal(t, "Jan 2, 2025, 4:04 PM CET", localTime(ts, "Europe/Zurich"))
}
