package nws

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/flood-risk-engine/internal/cache"
	"github.com/couchcryptid/flood-risk-engine/internal/domain"
	"github.com/couchcryptid/flood-risk-engine/internal/observability"
)

// RateClass is the rate-gate endpoint class for weather lookups.
const RateClass = "weather"

// CachedWeatherService wraps a WeatherService with the TTL cache and the
// weather rate gate. Keys round coordinates to ~100m so nearby requests share
// an entry, matching the resolution of NWS gridpoints.
type CachedWeatherService struct {
	inner     domain.WeatherService
	forecasts *cache.TTLCache[[]domain.ForecastPeriod]
	obs       *cache.TTLCache[domain.Observation]
	gate      *cache.RateGate
	ttl       time.Duration
	metrics   *observability.Metrics
}

// NewCachedWeatherService creates the cache/rate-gate decorator.
func NewCachedWeatherService(inner domain.WeatherService, forecasts *cache.TTLCache[[]domain.ForecastPeriod], obs *cache.TTLCache[domain.Observation], gate *cache.RateGate, ttl time.Duration, metrics *observability.Metrics) *CachedWeatherService {
	return &CachedWeatherService{
		inner:     inner,
		forecasts: forecasts,
		obs:       obs,
		gate:      gate,
		ttl:       ttl,
		metrics:   metrics,
	}
}

func (c *CachedWeatherService) Forecast(ctx context.Context, lat, lng float64) ([]domain.ForecastPeriod, error) {
	key := fmt.Sprintf("fc:%.3f,%.3f", lat, lng)
	if periods, ok := c.forecasts.Get(key); ok {
		c.metrics.CacheLookups.WithLabelValues("weather", "hit").Inc()
		return periods, nil
	}
	c.metrics.CacheLookups.WithLabelValues("weather", "miss").Inc()

	if !c.gate.Allow(RateClass) {
		c.metrics.RateGateRejects.WithLabelValues(RateClass).Inc()
		return nil, domain.NewRateLimitError(RateClass)
	}

	periods, err := c.inner.Forecast(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	c.forecasts.Set(key, periods, c.ttl)
	return periods, nil
}

func (c *CachedWeatherService) LatestObservation(ctx context.Context, lat, lng float64) (domain.Observation, error) {
	key := fmt.Sprintf("obs:%.3f,%.3f", lat, lng)
	if o, ok := c.obs.Get(key); ok {
		c.metrics.CacheLookups.WithLabelValues("weather", "hit").Inc()
		return o, nil
	}
	c.metrics.CacheLookups.WithLabelValues("weather", "miss").Inc()

	if !c.gate.Allow(RateClass) {
		c.metrics.RateGateRejects.WithLabelValues(RateClass).Inc()
		return domain.Observation{}, domain.NewRateLimitError(RateClass)
	}

	o, err := c.inner.LatestObservation(ctx, lat, lng)
	if err != nil {
		return domain.Observation{}, err
	}
	c.obs.Set(key, o, c.ttl)
	return o, nil
}
