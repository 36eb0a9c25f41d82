package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/couchcryptid/hikecast-alerts/internal/config"
	"github.com/couchcryptid/hikecast-alerts/internal/domain"
)

const (
	defaultPrefix  = "hikecast"
	snapshotPrefix = "snapshot"
)

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(ctx context.Context, cfg *config.Config) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	return client, nil
}

// SnapshotCache stores weather snapshots as JSON. Locations within roughly
// one kilometre share an entry.
type SnapshotCache struct {
	client goredis.Cmdable
	prefix string
}

// NewSnapshotCache creates a cache on client. An empty prefix defaults to "hikecast".
func NewSnapshotCache(client goredis.Cmdable, prefix string) *SnapshotCache {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &SnapshotCache{client: client, prefix: prefix}
}

// Get returns the cached snapshot for geo. A miss is (zero, false, nil).
func (c *SnapshotCache) Get(ctx context.Context, geo domain.GeoLocation) (domain.WeatherSnapshot, bool, error) {
	data, err := c.client.Get(ctx, c.key(geo)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.WeatherSnapshot{}, false, nil
	}
	if err != nil {
		return domain.WeatherSnapshot{}, false, fmt.Errorf("redis get: %w", err)
	}

	var snap domain.WeatherSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.WeatherSnapshot{}, false, fmt.Errorf("decode cached snapshot: %w", err)
	}
	return snap, true, nil
}

// Set stores snap for geo with the given expiry.
func (c *SnapshotCache) Set(ctx context.Context, geo domain.GeoLocation, snap domain.WeatherSnapshot, ttl time.Duration) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key(geo), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// key rounds coordinates to two decimals.
func (c *SnapshotCache) key(geo domain.GeoLocation) string {
	var sb strings.Builder
	sb.WriteString(c.prefix)
	sb.WriteString(":")
	sb.WriteString(snapshotPrefix)
	fmt.Fprintf(&sb, ":%.2f:%.2f", geo.Latitude, geo.Longitude)
	return sb.String()
}
