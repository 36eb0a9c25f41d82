package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// AlertEvent is the published record of one alert raised for one
// (user, location) pair during a check.
type AlertEvent struct {
	ID         string      `json:"id"`
	RunID      string      `json:"run_id,omitempty"`
	User       string      `json:"user"`
	Location   string      `json:"location"`
	Geo        GeoLocation `json:"geo"`
	Alert      Alert       `json:"alert"`
	DetectedAt time.Time   `json:"detected_at"`
	// TimeBucket is DetectedAt truncated to the hour, RFC 3339.
	TimeBucket string `json:"time_bucket"`
}

// NewAlertEvents stamps alerts found for user at location with the current
// time. IDs are stable within an hour so replays of the same check collapse
// downstream.
func NewAlertEvents(runID, user, location string, geo GeoLocation, alerts []Alert) []AlertEvent {
	now := clock.Now().UTC()
	bucket := now.Truncate(time.Hour).Format(time.RFC3339)

	events := make([]AlertEvent, 0, len(alerts))
	for _, a := range alerts {
		events = append(events, AlertEvent{
			ID:         generateID(user, location, a, bucket),
			RunID:      runID,
			User:       user,
			Location:   location,
			Geo:        geo,
			Alert:      a,
			DetectedAt: now,
			TimeBucket: bucket,
		})
	}
	return events
}

// generateID hashes the identifying fields of an alert. The type prefix keeps
// IDs readable in logs.
func generateID(user, location string, a Alert, bucket string) string {
	input := fmt.Sprintf("%s|%s|%s|%s|%s|%s", user, location, a.Type, a.RelativeDay, a.Message, bucket)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if a.Type == "" {
		return short
	}
	return strings.ToLower(string(a.Type)) + "-" + short
}
