// Package engine orchestrates a flood risk assessment: fan-out data
// acquisition per river, threshold resolution, scoring, and area aggregation.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/couchcryptid/flood-risk-engine/internal/cache"
	"github.com/couchcryptid/flood-risk-engine/internal/domain"
	"github.com/couchcryptid/flood-risk-engine/internal/observability"
)

// PredictionRateClass is the rate-gate endpoint class for assessments.
const PredictionRateClass = "prediction"

// AssessmentPublisher forwards completed assessments to downstream consumers.
type AssessmentPublisher interface {
	Publish(ctx context.Context, assessment domain.AreaAssessment) error
}

// Request describes one inbound assessment request. Rivers optionally names
// specific gauge sites; when empty, all active sites inside the radius are
// assessed.
type Request struct {
	Lat    float64  `json:"lat"`
	Lng    float64  `json:"lng"`
	Radius float64  `json:"radius"`
	Rivers []string `json:"rivers,omitempty"`
}

const (
	defaultRadiusMiles = 25
	maxRadiusMiles     = 100
)

// Engine wires the upstream services into the assessment flow.
type Engine struct {
	gauges      domain.GaugeService
	weather     domain.WeatherService
	floodStages domain.FloodStageService
	publisher   AssessmentPublisher
	gate        *cache.RateGate

	lookback      time.Duration
	maxConcurrent int

	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an Engine. publisher may be nil to disable publishing;
// floodStages may be nil to force calculated thresholds everywhere.
func New(gauges domain.GaugeService, weather domain.WeatherService, floodStages domain.FloodStageService, publisher AssessmentPublisher, gate *cache.RateGate, lookback time.Duration, maxConcurrent int, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Engine{
		gauges:        gauges,
		weather:       weather,
		floodStages:   floodStages,
		publisher:     publisher,
		gate:          gate,
		lookback:      lookback,
		maxConcurrent: maxConcurrent,
		logger:        logger,
		metrics:       metrics,
	}
}

// CheckReadiness reports whether the engine has its required collaborators.
// Upstream reachability is deliberately not probed: a readiness probe firing
// every few seconds would drain the rate budget the engine exists to protect.
func (e *Engine) CheckReadiness(_ context.Context) error {
	if e.gauges == nil {
		return errors.New("gauge service not configured")
	}
	if e.weather == nil {
		return errors.New("weather service not configured")
	}
	return nil
}

// Assess runs one complete area assessment. A single river's failure is
// reported as a partial omission, never a global failure; a missing weather
// forecast has no principled fallback and propagates.
func (e *Engine) Assess(ctx context.Context, req Request) (domain.AreaAssessment, error) {
	start := time.Now()

	req, err := normalize(req)
	if err != nil {
		return domain.AreaAssessment{}, err
	}

	if e.gate != nil && !e.gate.Allow(PredictionRateClass) {
		e.metrics.RateGateRejects.WithLabelValues(PredictionRateClass).Inc()
		return domain.AreaAssessment{}, domain.NewRateLimitError(PredictionRateClass)
	}

	forecast, err := e.weather.Forecast(ctx, req.Lat, req.Lng)
	if err != nil {
		return domain.AreaAssessment{}, err
	}

	sites, err := e.collectSites(ctx, req)
	if err != nil {
		return domain.AreaAssessment{}, err
	}

	predictions := e.predictAll(ctx, sites, forecast)

	// Highest risk first; the score breaks ties within a level.
	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Score.Total > predictions[j].Score.Total
	})

	assessment := domain.Aggregate(predictions, domain.PrecipitationMetric(forecast))

	// The latest observation is display context only; losing it is not worth
	// failing the assessment.
	if obs, err := e.weather.LatestObservation(ctx, req.Lat, req.Lng); err != nil {
		e.logger.Warn("observation lookup failed", "error", err)
	} else {
		assessment.Observation = &obs
	}

	e.metrics.AssessmentDuration.Observe(time.Since(start).Seconds())
	e.metrics.RiversPerAssessment.Observe(float64(len(assessment.Rivers)))
	e.metrics.Assessments.WithLabelValues(string(assessment.OverallRisk)).Inc()

	if e.publisher != nil {
		if err := e.publisher.Publish(ctx, assessment); err != nil {
			e.logger.Warn("assessment publish failed", "error", err)
		} else {
			e.metrics.AssessmentsPublished.Inc()
		}
	}

	e.logger.Info("assessment complete",
		"rivers", len(assessment.Rivers),
		"overall_risk", assessment.OverallRisk,
		"duration", time.Since(start),
	)
	return assessment, nil
}

func normalize(req Request) (Request, error) {
	if req.Lat < -90 || req.Lat > 90 {
		return Request{}, domain.NewValidationError("latitude %v out of range [-90,90]", req.Lat)
	}
	if req.Lng < -180 || req.Lng > 180 {
		return Request{}, domain.NewValidationError("longitude %v out of range [-180,180]", req.Lng)
	}
	if req.Radius < 0 || req.Radius > maxRadiusMiles {
		return Request{}, domain.NewValidationError("radius %v out of range (0,%d]", req.Radius, maxRadiusMiles)
	}
	if req.Radius == 0 {
		req.Radius = defaultRadiusMiles
	}
	for _, id := range req.Rivers {
		if id == "" {
			return Request{}, domain.NewValidationError("river site id must not be empty")
		}
	}
	return req, nil
}

// collectSites resolves the request to concrete gauge sites: either the named
// rivers or everything inside the bounding box.
func (e *Engine) collectSites(ctx context.Context, req Request) ([]domain.GaugeSite, error) {
	params := []domain.Parameter{domain.ParameterDischarge, domain.ParameterStage}

	if len(req.Rivers) == 0 {
		box := domain.BoundingBoxAround(req.Lat, req.Lng, req.Radius)
		return e.gauges.SitesInBounds(ctx, box, params, e.lookback)
	}

	// Named rivers are fetched individually under the same worker bound as
	// prediction; a failed site is logged and omitted.
	type result struct {
		site domain.GaugeSite
		err  error
	}
	results := make([]result, len(req.Rivers))

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.maxConcurrent)
	for i, id := range req.Rivers {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			site, err := e.gauges.SiteData(ctx, id, params, e.lookback)
			results[i] = result{site: site, err: err}
		}(i, id)
	}
	wg.Wait()

	sites := make([]domain.GaugeSite, 0, len(results))
	for i, r := range results {
		if r.err != nil {
			e.metrics.RiverFailures.Inc()
			e.logger.Warn("river fetch failed, omitting from assessment",
				"site_id", req.Rivers[i],
				"error", r.err,
			)
			continue
		}
		sites = append(sites, r.site)
	}
	return sites, nil
}

// predictAll resolves thresholds and scores each site with bounded fan-out.
// Result order is not guaranteed; the caller re-sorts.
func (e *Engine) predictAll(ctx context.Context, sites []domain.GaugeSite, forecast []domain.ForecastPeriod) []domain.RiverPrediction {
	predictions := make([]domain.RiverPrediction, len(sites))
	included := make([]bool, len(sites))

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.maxConcurrent)
	for i := range sites {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			site := sites[i]
			if len(site.Measurements) == 0 {
				e.metrics.RiverFailures.Inc()
				e.logger.Warn("site has no recent measurements, omitting", "site_id", site.ID)
				return
			}

			var currentStage float64
			if m, ok := site.Latest(domain.ParameterStage); ok {
				currentStage = m.Value
			}

			thresholds := domain.ResolveThresholds(ctx, e.floodStages, site.ID, currentStage, e.logger)
			if thresholds.Source == domain.SourceCalculated {
				e.metrics.FallbackThresholds.Inc()
			}

			predictions[i] = domain.PredictRiver(site, thresholds, forecast)
			included[i] = true
		}(i)
	}
	wg.Wait()

	out := make([]domain.RiverPrediction, 0, len(sites))
	for i, ok := range included {
		if ok {
			out = append(out, predictions[i])
		}
	}
	return out
}
