package domain

import (
	"context"
	"time"
)

// GaugeService fetches normalized gauge time series.
type GaugeService interface {
	// SiteData returns a site and its recent measurements for the given
	// parameters over the lookback period.
	SiteData(ctx context.Context, siteID string, params []Parameter, lookback time.Duration) (GaugeSite, error)

	// SitesInBounds returns all sites with recent measurements inside the box.
	SitesInBounds(ctx context.Context, box BoundingBox, params []Parameter, lookback time.Duration) ([]GaugeSite, error)
}

// WeatherService fetches point forecasts and observations.
type WeatherService interface {
	// Forecast returns the forecast periods for a point.
	Forecast(ctx context.Context, lat, lng float64) ([]ForecastPeriod, error)

	// LatestObservation returns the most recent observation near a point.
	LatestObservation(ctx context.Context, lat, lng float64) (Observation, error)
}

// FloodStageService looks up authoritative flood stage thresholds for a site.
type FloodStageService interface {
	// Thresholds returns the official threshold set for a site, or an error
	// when the site has no catalog entry or the payload is unusable.
	Thresholds(ctx context.Context, siteID string) (FloodStageThresholds, error)
}
