package openmeteo

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/hikecast-alerts/internal/domain"
	"github.com/couchcryptid/hikecast-alerts/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	calls  int
	result domain.GeoLocation
	err    error
}

func (m *countingGeocoder) Geocode(_ context.Context, name string) (domain.GeoLocation, error) {
	m.calls++
	if m.err != nil {
		return domain.GeoLocation{}, m.err
	}
	r := m.result
	if r.Name == "" {
		r.Name = name
	}
	return r, nil
}

// --- CachedGeocoder tests ---

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeoLocation{Name: "Zermatt", Latitude: 46.02, Longitude: 7.75}}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	g1, err := cached.Geocode(context.Background(), "Zermatt")
	require.NoError(t, err)
	g2, err := cached.Geocode(context.Background(), "  zermatt ")
	require.NoError(t, err)

	assert.Equal(t, g1, g2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
}

func TestCachedGeocoder_ErrorsNotCached(t *testing.T) {
	inner := &countingGeocoder{err: domain.ErrLocationNotFound}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.Geocode(context.Background(), "Atlantis")
	require.True(t, errors.Is(err, domain.ErrLocationNotFound))
	_, err = cached.Geocode(context.Background(), "Atlantis")
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_Eviction(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, 2, observability.NewMetricsForTesting())
	ctx := context.Background()

	_, _ = cached.Geocode(ctx, "a")
	_, _ = cached.Geocode(ctx, "b")
	_, _ = cached.Geocode(ctx, "a") // a becomes most recent
	_, _ = cached.Geocode(ctx, "c") // evicts b
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, 2, cached.cache.len())

	_, _ = cached.Geocode(ctx, "a")
	assert.Equal(t, 3, inner.calls, "a should still be cached")

	_, _ = cached.Geocode(ctx, "b")
	assert.Equal(t, 4, inner.calls, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)
	c.put("x", domain.GeoLocation{Name: "old"})
	c.put("x", domain.GeoLocation{Name: "new"})

	got, ok := c.get("x")
	require.True(t, ok)
	assert.Equal(t, "new", got.Name)
	assert.Equal(t, 1, c.len())
}
