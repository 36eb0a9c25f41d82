package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Channel is an outbound notification transport.
type Channel string

const (
	ChannelTelegram Channel = "telegram"
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
)

// Channels lists every supported channel in delivery order.
var Channels = []Channel{ChannelTelegram, ChannelEmail, ChannelWhatsApp}

// Defaults applied to users that leave the corresponding field empty.
const (
	DefaultSchedule      = "0 7 * * *"
	DefaultTimezone      = "UTC"
	DefaultCheckInterval = "0 */2 * * *"
	DefaultForecastDay   = 1
)

// User is a subscriber. The store owns users; the core only reads them.
type User struct {
	Name      string    `json:"name"`
	Locations []string  `json:"locations"`
	Channels  []Channel `json:"channels"`

	TelegramChatID string `json:"telegram_chat_id,omitempty"`
	Email          string `json:"email,omitempty"`
	WhatsApp       string `json:"whatsapp,omitempty"`

	// Schedule is the cron expression for routine forecast notifications.
	Schedule string `json:"schedule"`
	Timezone string `json:"timezone"`

	// ForecastDays selects weekdays by English name ("Saturday"). When empty,
	// ForecastDay picks a single day by index (0 = today).
	ForecastDays []string `json:"forecast_days,omitempty"`
	ForecastDay  *int     `json:"forecast_day,omitempty"`

	EnableAIAnalysis            bool   `json:"enable_ai_analysis"`
	EnableExtremeWeatherAlerts  bool   `json:"enable_extreme_weather_alerts"`
	ExtremeWeatherCheckInterval string `json:"extreme_weather_check_interval"`

	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// WithDefaults returns a copy with empty schedule fields filled in.
func (u User) WithDefaults() User {
	if u.Schedule == "" {
		u.Schedule = DefaultSchedule
	}
	if u.Timezone == "" {
		u.Timezone = DefaultTimezone
	}
	if u.ExtremeWeatherCheckInterval == "" {
		u.ExtremeWeatherCheckInterval = DefaultCheckInterval
	}
	return u
}

// CheckInterval returns the extreme-weather cron expression, defaulted.
func (u User) CheckInterval() string {
	if u.ExtremeWeatherCheckInterval == "" {
		return DefaultCheckInterval
	}
	return u.ExtremeWeatherCheckInterval
}

// NotificationSchedule returns the routine cron expression bound to the
// user's timezone.
func (u User) NotificationSchedule() string {
	d := u.WithDefaults()
	return WithTimezone(d.Schedule, d.Timezone)
}

// HasChannel reports whether the user subscribed to c.
func (u User) HasChannel(c Channel) bool {
	return slices.Contains(u.Channels, c)
}

// Handle returns the contact handle for c, or "" when none is set.
func (u User) Handle(c Channel) string {
	switch c {
	case ChannelTelegram:
		return u.TelegramChatID
	case ChannelEmail:
		return u.Email
	case ChannelWhatsApp:
		return u.WhatsApp
	default:
		return ""
	}
}

// Validate checks user input and returns a *ValidationError listing every
// problem, or nil.
func (u User) Validate() error {
	var problems []string
	if strings.TrimSpace(u.Name) == "" {
		problems = append(problems, "name is required")
	}
	if len(u.Locations) == 0 {
		problems = append(problems, "at least one location is required")
	}
	for _, loc := range u.Locations {
		if strings.TrimSpace(loc) == "" {
			problems = append(problems, "locations must not be blank")
			break
		}
	}
	if len(u.Channels) == 0 {
		problems = append(problems, "at least one notification channel is required")
	}
	for _, c := range u.Channels {
		if !slices.Contains(Channels, c) {
			problems = append(problems, fmt.Sprintf("unknown channel %q", c))
			continue
		}
		if u.Handle(c) == "" {
			problems = append(problems, fmt.Sprintf("%s handle is required when the %s channel is selected", c, c))
		}
	}
	if u.Schedule != "" && !ValidSchedule(u.Schedule) {
		problems = append(problems, "invalid cron schedule format")
	}
	if u.ExtremeWeatherCheckInterval != "" && !ValidSchedule(u.ExtremeWeatherCheckInterval) {
		problems = append(problems, "invalid extreme weather check interval (must be valid cron format)")
	}
	if u.Timezone != "" {
		if _, err := time.LoadLocation(u.Timezone); err != nil {
			problems = append(problems, fmt.Sprintf("unknown timezone %q", u.Timezone))
		}
	}
	for _, day := range u.ForecastDays {
		if !isWeekday(day) {
			problems = append(problems, fmt.Sprintf("unknown forecast day %q", day))
		}
	}
	if u.ForecastDay != nil && (*u.ForecastDay < 0 || *u.ForecastDay >= maxForecastDays) {
		problems = append(problems, "forecast day must be between 0 and 6")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func isWeekday(name string) bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d.String() == name {
			return true
		}
	}
	return false
}
