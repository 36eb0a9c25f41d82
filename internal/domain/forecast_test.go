package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectForecastDays(t *testing.T) {
	daily := clearSnapshot(7).Daily
	idx := func(i int) *int { return &i }

	t.Run("named weekdays", func(t *testing.T) {
		days := SelectForecastDays(daily, User{ForecastDays: []string{"Sunday", "Saturday"}})

		require.Len(t, days, 2)
		assert.Equal(t, "Saturday", days[0].DayName)
		assert.Equal(t, "Day +5", days[0].RelativeLabel)
		assert.Equal(t, "Sunday", days[1].DayName)
		assert.Equal(t, "Saturday (Day +5)", days[0].Label())
	})

	t.Run("weekday outside forecast", func(t *testing.T) {
		short := clearSnapshot(2).Daily
		assert.Empty(t, SelectForecastDays(short, User{ForecastDays: []string{"Friday"}}))
	})

	t.Run("legacy default is tomorrow", func(t *testing.T) {
		days := SelectForecastDays(daily, User{})

		require.Len(t, days, 1)
		assert.Equal(t, 1, days[0].Index)
		assert.Equal(t, "Tomorrow", days[0].RelativeLabel)
	})

	t.Run("legacy index clamped", func(t *testing.T) {
		days := SelectForecastDays(clearSnapshot(3).Daily, User{ForecastDay: idx(6)})

		require.Len(t, days, 1)
		assert.Equal(t, 2, days[0].Index)
	})

	t.Run("no data", func(t *testing.T) {
		assert.Nil(t, SelectForecastDays(DailyForecast{}, User{}))
	})
}

func TestBasicAssessment(t *testing.T) {
	tests := []struct {
		name string
		day  DayValues
		want []string
	}{
		{"warm and dry", DayValues{TempMax: 27, WeatherCode: 0}, []string{"Warm weather", "Dry conditions", "Clear to partly cloudy"}},
		{"cool drizzle", DayValues{TempMax: 8, Precipitation: 1, WeatherCode: 53}, []string{"Cool weather", "Minimal precipitation"}},
		{"cold snow", DayValues{TempMax: -3, Precipitation: 4, WeatherCode: 73}, []string{"winter gear", "pack waterproof gear", "Snow conditions"}},
		{"storm", DayValues{TempMax: 18, Precipitation: 15, WeatherCode: 95}, []string{"Pleasant", "Heavy rain expected", "Thunderstorms"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BasicAssessment(tt.day)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}
}
