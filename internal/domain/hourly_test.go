package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindRuns(t *testing.T) {
	isOne := func(c int) bool { return c == 1 }

	tests := []struct {
		name  string
		codes []int
		want  []HourRun
	}{
		{"none", []int{0, 0, 0}, nil},
		{"all", []int{1, 1, 1}, []HourRun{{0, 3}}},
		{"middle", []int{0, 1, 1, 0}, []HourRun{{1, 3}}},
		{"edges", []int{1, 0, 0, 1}, []HourRun{{0, 1}, {3, 4}}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, findRuns(tt.codes, isOne))
		})
	}
}

func TestHourRun(t *testing.T) {
	r := HourRun{Start: 14, End: 16}

	assert.Equal(t, 2, r.Duration())
	assert.Equal(t, []int{14, 15}, r.Hours())
	assert.Equal(t, "14:00–16:00", r.String())
	assert.Equal(t, "0:00–14:00, 16:00–24:00", FormatRuns([]HourRun{{0, 14}, {16, 24}}))
}

func TestHourlyForecast_DayCodes(t *testing.T) {
	h := HourlyForecast{WeatherCodes: make([]int, 2*HoursPerDay)}
	h.WeatherCodes[HoursPerDay] = 95

	codes, ok := h.DayCodes(1)
	assert.True(t, ok)
	assert.Len(t, codes, HoursPerDay)
	assert.Equal(t, 95, codes[0])

	_, ok = h.DayCodes(2)
	assert.False(t, ok)
	_, ok = h.DayCodes(-1)
	assert.False(t, ok)
}
