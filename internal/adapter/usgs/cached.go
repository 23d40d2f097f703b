package usgs

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/flood-risk-engine/internal/cache"
	"github.com/couchcryptid/flood-risk-engine/internal/domain"
	"github.com/couchcryptid/flood-risk-engine/internal/observability"
)

// RateClass is the rate-gate endpoint class for gauge queries.
const RateClass = "gauge-query"

// CachedGaugeService wraps a GaugeService with the TTL cache and the
// gauge-query rate gate. Cache hits bypass the gate entirely; only calls that
// would reach the upstream are gated.
type CachedGaugeService struct {
	inner   domain.GaugeService
	sites   *cache.TTLCache[domain.GaugeSite]
	areas   *cache.TTLCache[[]domain.GaugeSite]
	gate    *cache.RateGate
	ttl     time.Duration
	metrics *observability.Metrics
}

// NewCachedGaugeService creates the cache/rate-gate decorator.
func NewCachedGaugeService(inner domain.GaugeService, sites *cache.TTLCache[domain.GaugeSite], areas *cache.TTLCache[[]domain.GaugeSite], gate *cache.RateGate, ttl time.Duration, metrics *observability.Metrics) *CachedGaugeService {
	return &CachedGaugeService{
		inner:   inner,
		sites:   sites,
		areas:   areas,
		gate:    gate,
		ttl:     ttl,
		metrics: metrics,
	}
}

func (c *CachedGaugeService) SiteData(ctx context.Context, siteID string, params []domain.Parameter, lookback time.Duration) (domain.GaugeSite, error) {
	key := fmt.Sprintf("site:%s|%s|%s", siteID, joinParams(params), lookback)
	if site, ok := c.sites.Get(key); ok {
		c.metrics.CacheLookups.WithLabelValues("gauge", "hit").Inc()
		return site, nil
	}
	c.metrics.CacheLookups.WithLabelValues("gauge", "miss").Inc()

	if !c.gate.Allow(RateClass) {
		c.metrics.RateGateRejects.WithLabelValues(RateClass).Inc()
		return domain.GaugeSite{}, domain.NewRateLimitError(RateClass)
	}

	site, err := c.inner.SiteData(ctx, siteID, params, lookback)
	if err != nil {
		return domain.GaugeSite{}, err
	}
	c.sites.Set(key, site, c.ttl)
	return site, nil
}

func (c *CachedGaugeService) SitesInBounds(ctx context.Context, box domain.BoundingBox, params []domain.Parameter, lookback time.Duration) ([]domain.GaugeSite, error) {
	key := fmt.Sprintf("bbox:%.4f,%.4f,%.4f,%.4f|%s|%s", box.West, box.South, box.East, box.North, joinParams(params), lookback)
	if sites, ok := c.areas.Get(key); ok {
		c.metrics.CacheLookups.WithLabelValues("gauge", "hit").Inc()
		return sites, nil
	}
	c.metrics.CacheLookups.WithLabelValues("gauge", "miss").Inc()

	if !c.gate.Allow(RateClass) {
		c.metrics.RateGateRejects.WithLabelValues(RateClass).Inc()
		return nil, domain.NewRateLimitError(RateClass)
	}

	sites, err := c.inner.SitesInBounds(ctx, box, params, lookback)
	if err != nil {
		return nil, err
	}
	// Empty areas are cached too: a box with no gauges stays empty for the TTL.
	c.areas.Set(key, sites, c.ttl)
	return sites, nil
}
