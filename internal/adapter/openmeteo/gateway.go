package openmeteo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/hikecast-alerts/internal/domain"
	"github.com/couchcryptid/hikecast-alerts/internal/observability"
)

// Forecaster fetches a snapshot for a geocoded location.
type Forecaster interface {
	Forecast(ctx context.Context, geo domain.GeoLocation) (domain.WeatherSnapshot, error)
}

// SnapshotCache stores recent snapshots keyed by location. A miss returns
// ok == false with a nil error.
type SnapshotCache interface {
	Get(ctx context.Context, geo domain.GeoLocation) (snap domain.WeatherSnapshot, ok bool, err error)
	Set(ctx context.Context, geo domain.GeoLocation, snap domain.WeatherSnapshot, ttl time.Duration) error
}

// Gateway resolves a free-text location and returns its canonical snapshot.
// The cache is optional and best-effort: cache failures are logged and the
// gateway falls through to the API.
type Gateway struct {
	geocoder   domain.Geocoder
	forecaster Forecaster
	cache      SnapshotCache
	cacheTTL   time.Duration
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewGateway creates a weather gateway. cache may be nil.
func NewGateway(geocoder domain.Geocoder, forecaster Forecaster, cache SnapshotCache, cacheTTL time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Gateway {
	return &Gateway{
		geocoder:   geocoder,
		forecaster: forecaster,
		cache:      cache,
		cacheTTL:   cacheTTL,
		metrics:    metrics,
		logger:     logger,
	}
}

// FetchWeather geocodes location and fetches its snapshot. Geocoding misses
// wrap domain.ErrLocationNotFound.
func (g *Gateway) FetchWeather(ctx context.Context, location string) (domain.LocationWeather, error) {
	start := time.Now()
	defer func() { g.metrics.WeatherFetchDuration.Observe(time.Since(start).Seconds()) }()

	geo, err := g.geocoder.Geocode(ctx, location)
	if err != nil {
		return domain.LocationWeather{}, fmt.Errorf("geocode %q: %w", location, err)
	}

	if snap, ok := g.cached(ctx, geo); ok {
		return domain.LocationWeather{Geo: geo, Snapshot: snap}, nil
	}

	snap, err := g.forecaster.Forecast(ctx, geo)
	if err != nil {
		return domain.LocationWeather{}, fmt.Errorf("forecast %q: %w", location, err)
	}

	if g.cache != nil {
		if err := g.cache.Set(ctx, geo, snap, g.cacheTTL); err != nil {
			g.logger.Warn("snapshot cache write failed", "location", location, "error", err)
		}
	}
	return domain.LocationWeather{Geo: geo, Snapshot: snap}, nil
}

func (g *Gateway) cached(ctx context.Context, geo domain.GeoLocation) (domain.WeatherSnapshot, bool) {
	if g.cache == nil {
		return domain.WeatherSnapshot{}, false
	}
	snap, ok, err := g.cache.Get(ctx, geo)
	if err != nil {
		g.logger.Warn("snapshot cache read failed", "location", geo.Name, "error", err)
		return domain.WeatherSnapshot{}, false
	}
	if !ok {
		g.metrics.WeatherCache.WithLabelValues("snapshot", "miss").Inc()
		return domain.WeatherSnapshot{}, false
	}
	g.metrics.WeatherCache.WithLabelValues("snapshot", "hit").Inc()
	return snap, true
}
