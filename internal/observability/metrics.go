package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// flood risk engine.
type Metrics struct {
	// Upstream client metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: service={usgs,nws,nwps}, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: service
	CacheLookups     *prometheus.CounterVec   // labels: cache={gauge,weather}, result={hit,miss}
	RateGateRejects  *prometheus.CounterVec   // labels: class={weather,gauge-query,prediction}

	// Assessment metrics.
	AssessmentDuration   prometheus.Histogram
	RiversPerAssessment  prometheus.Histogram
	RiverFailures        prometheus.Counter
	FallbackThresholds   prometheus.Counter
	Assessments          *prometheus.CounterVec // labels: overall_risk={Low,Medium,High}
	AssessmentsPublished prometheus.Counter
	ServiceUp            prometheus.Gauge
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "upstream_requests_total",
			Help:      "Upstream API requests by service and outcome.",
		}, []string{"service", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flood_risk",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"service"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "cache_lookups_total",
			Help:      "Upstream cache lookups by cache and result.",
		}, []string{"cache", "result"}),
		RateGateRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "rate_gate_rejections_total",
			Help:      "Calls rejected by the per-class rate gate.",
		}, []string{"class"}),
		AssessmentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flood_risk",
			Name:      "assessment_duration_seconds",
			Help:      "Duration of a complete area assessment.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}),
		RiversPerAssessment: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flood_risk",
			Name:      "rivers_per_assessment",
			Help:      "Number of rivers included in an assessment.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		RiverFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "river_failures_total",
			Help:      "Rivers omitted from assessments due to fetch or scoring failures.",
		}),
		FallbackThresholds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "fallback_thresholds_total",
			Help:      "River predictions that used calculated flood stage thresholds.",
		}),
		Assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "assessments_total",
			Help:      "Completed assessments by overall risk level.",
		}, []string{"overall_risk"}),
		AssessmentsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_risk",
			Name:      "assessments_published_total",
			Help:      "Assessments published to the sink topic.",
		}),
		ServiceUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "flood_risk",
			Name:      "service_up",
			Help:      "1 while the engine is serving, 0 during shutdown.",
		}),
	}

	prometheus.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.CacheLookups,
		m.RateGateRejects,
		m.AssessmentDuration,
		m.RiversPerAssessment,
		m.RiverFailures,
		m.FallbackThresholds,
		m.Assessments,
		m.AssessmentsPublished,
		m.ServiceUp,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		UpstreamRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "flood_risk", Name: "upstream_requests_total"}, []string{"service", "outcome"}),
		UpstreamDuration:     prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "flood_risk", Name: "upstream_request_duration_seconds"}, []string{"service"}),
		CacheLookups:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "flood_risk", Name: "cache_lookups_total"}, []string{"cache", "result"}),
		RateGateRejects:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "flood_risk", Name: "rate_gate_rejections_total"}, []string{"class"}),
		AssessmentDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "flood_risk", Name: "assessment_duration_seconds"}),
		RiversPerAssessment:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "flood_risk", Name: "rivers_per_assessment"}),
		RiverFailures:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flood_risk", Name: "river_failures_total"}),
		FallbackThresholds:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flood_risk", Name: "fallback_thresholds_total"}),
		Assessments:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "flood_risk", Name: "assessments_total"}, []string{"overall_risk"}),
		AssessmentsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flood_risk", Name: "assessments_published_total"}),
		ServiceUp:            prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "flood_risk", Name: "service_up"}),
	}
}
