package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/tronmegateam/statsgate/internal/health"
	"github.com/tronmegateam/statsgate/internal/stats"
)

const dashboardCacheKey = "statsgate:dashboard"

// DashboardCache is a Redis-backed cache for the aggregate dashboard
// bundle. All methods are safe on a nil receiver, so an unconfigured
// cache degrades to always-miss.
type DashboardCache struct {
	log     logrus.FieldLogger
	client  *redis.Client
	ttl     time.Duration
	metrics *health.Metrics
}

// NewDashboardCache creates a dashboard cache from cfg, or returns
// nil when no cache address is configured.
func NewDashboardCache(
	log logrus.FieldLogger,
	cfg CacheConfig,
	metrics *health.Metrics,
) *DashboardCache {
	if cfg.Addr == "" {
		return nil
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &DashboardCache{
		log: log.WithField("component", "dashboard_cache"),
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl:     ttl,
		metrics: metrics,
	}
}

// Get returns the cached bundle if one is fresh. The returned bundle
// is marked as cached.
func (c *DashboardCache) Get(ctx context.Context) (*stats.DashboardBundle, bool) {
	if c == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, dashboardCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).Warn("Dashboard cache read failed")
		}

		c.metrics.RecordCacheMiss()

		return nil, false
	}

	var bundle stats.DashboardBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		c.log.WithError(err).Warn("Discarding undecodable cached dashboard")
		c.metrics.RecordCacheMiss()

		return nil, false
	}

	c.metrics.RecordCacheHit()

	bundle.Cached = true

	return &bundle, true
}

// Set stores the bundle for the configured TTL. Failures are logged
// and otherwise ignored, the cache is best effort.
func (c *DashboardCache) Set(ctx context.Context, bundle stats.DashboardBundle) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(bundle)
	if err != nil {
		c.log.WithError(err).Warn("Failed to encode dashboard for caching")

		return
	}

	if err := c.client.Set(ctx, dashboardCacheKey, raw, c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("Dashboard cache write failed")
	}
}

// Close releases the underlying Redis connection.
func (c *DashboardCache) Close() error {
	if c == nil {
		return nil
	}

	return c.client.Close()
}
