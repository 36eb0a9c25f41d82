//go:build openmeteo

package openmeteo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the public Open-Meteo API. No key is needed.
// Run with: go test -tags=openmeteo ./internal/adapter/openmeteo/ -v -count=1

func smokeClient() *Client {
	return NewClient("", "", 7, 10*time.Second, testLogger())
}

func TestSmoke_Geocode(t *testing.T) {
	geo, err := smokeClient().Geocode(context.Background(), "Zermatt")
	require.NoError(t, err)

	assert.Equal(t, "Zermatt", geo.Name)
	assert.InDelta(t, 46.02, geo.Latitude, 0.1)
	assert.InDelta(t, 7.75, geo.Longitude, 0.1)
}

func TestSmoke_Forecast(t *testing.T) {
	c := smokeClient()
	geo, err := c.Geocode(context.Background(), "Zermatt")
	require.NoError(t, err)

	snap, err := c.Forecast(context.Background(), geo)
	require.NoError(t, err)

	require.NotNil(t, snap.Current)
	assert.Equal(t, 7, snap.Daily.Len())
	assert.Len(t, snap.Hourly.WeatherCodes, 7*24)
}
