package openmeteo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/hikecast-alerts/internal/domain"
	"github.com/couchcryptid/hikecast-alerts/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubForecaster struct {
	calls int
	snap  domain.WeatherSnapshot
	err   error
}

func (s *stubForecaster) Forecast(_ context.Context, _ domain.GeoLocation) (domain.WeatherSnapshot, error) {
	s.calls++
	return s.snap, s.err
}

type memoryCache struct {
	entries  map[string]domain.WeatherSnapshot
	getErr   error
	setErr   error
	lastTTL  time.Duration
	setCalls int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]domain.WeatherSnapshot)}
}

func (m *memoryCache) Get(_ context.Context, geo domain.GeoLocation) (domain.WeatherSnapshot, bool, error) {
	if m.getErr != nil {
		return domain.WeatherSnapshot{}, false, m.getErr
	}
	s, ok := m.entries[geo.Name]
	return s, ok, nil
}

func (m *memoryCache) Set(_ context.Context, geo domain.GeoLocation, snap domain.WeatherSnapshot, ttl time.Duration) error {
	m.setCalls++
	m.lastTTL = ttl
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[geo.Name] = snap
	return nil
}

func testSnapshot() domain.WeatherSnapshot {
	return domain.WeatherSnapshot{
		Current: &domain.CurrentConditions{Temperature: 21},
		Daily:   domain.DailyForecast{Dates: []string{"2025-07-14"}, TempMax: []float64{24}, TempMin: []float64{12}, PrecipitationSum: []float64{0}, WeatherCodes: []int{1}},
	}
}

func TestGateway_FetchWeather(t *testing.T) {
	geocoder := &countingGeocoder{result: domain.GeoLocation{Name: "Zermatt", Country: "Switzerland"}}
	forecaster := &stubForecaster{snap: testSnapshot()}
	g := NewGateway(geocoder, forecaster, nil, 0, observability.NewMetricsForTesting(), testLogger())

	lw, err := g.FetchWeather(context.Background(), "Zermatt")
	require.NoError(t, err)

	assert.Equal(t, "Zermatt, Switzerland", lw.Geo.Label())
	assert.Equal(t, testSnapshot(), lw.Snapshot)
}

func TestGateway_UsesCache(t *testing.T) {
	geocoder := &countingGeocoder{}
	forecaster := &stubForecaster{snap: testSnapshot()}
	cache := newMemoryCache()
	g := NewGateway(geocoder, forecaster, cache, 15*time.Minute, observability.NewMetricsForTesting(), testLogger())

	_, err := g.FetchWeather(context.Background(), "Zermatt")
	require.NoError(t, err)
	_, err = g.FetchWeather(context.Background(), "Zermatt")
	require.NoError(t, err)

	assert.Equal(t, 1, forecaster.calls)
	assert.Equal(t, 1, cache.setCalls)
	assert.Equal(t, 15*time.Minute, cache.lastTTL)
}

func TestGateway_CacheFailuresFallThrough(t *testing.T) {
	forecaster := &stubForecaster{snap: testSnapshot()}
	cache := newMemoryCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")
	g := NewGateway(&countingGeocoder{}, forecaster, cache, time.Minute, observability.NewMetricsForTesting(), testLogger())

	lw, err := g.FetchWeather(context.Background(), "Zermatt")
	require.NoError(t, err)
	assert.Equal(t, testSnapshot(), lw.Snapshot)
	assert.Equal(t, 1, forecaster.calls)
}

func TestGateway_Errors(t *testing.T) {
	t.Run("location not found", func(t *testing.T) {
		g := NewGateway(&countingGeocoder{err: domain.ErrLocationNotFound}, &stubForecaster{}, nil, 0, observability.NewMetricsForTesting(), testLogger())

		_, err := g.FetchWeather(context.Background(), "Atlantis")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrLocationNotFound))
	})

	t.Run("forecast failure", func(t *testing.T) {
		forecaster := &stubForecaster{err: errors.New("status 502")}
		g := NewGateway(&countingGeocoder{}, forecaster, nil, 0, observability.NewMetricsForTesting(), testLogger())

		_, err := g.FetchWeather(context.Background(), "Zermatt")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `forecast "Zermatt"`)
	})
}
