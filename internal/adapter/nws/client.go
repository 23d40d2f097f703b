// Package nws implements domain.WeatherService against api.weather.gov.
//
// The NWS API is a two-step lookup: a point query resolves to gridpoint
// forecast and observation-station URLs, which are then fetched separately.
// Point resolutions are stable for a coordinate, so the cached decorator
// keyed on rounded coordinates absorbs the extra round trip.
package nws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/flood-risk-engine/internal/domain"
	"github.com/couchcryptid/flood-risk-engine/internal/observability"
	"github.com/couchcryptid/flood-risk-engine/internal/retry"
)

const serviceName = "nws"

// Client implements domain.WeatherService.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	policy     retry.Policy
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an NWS API client. api.weather.gov rejects requests
// without a User-Agent, so one is always sent.
func NewClient(baseURL, userAgent string, timeout time.Duration, policy retry.Policy, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		policy:     policy,
		metrics:    metrics,
		logger:     logger,
	}
}

// Forecast returns the gridpoint forecast periods for a point.
func (c *Client) Forecast(ctx context.Context, lat, lng float64) ([]domain.ForecastPeriod, error) {
	point, err := c.lookupPoint(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	if point.Properties.Forecast == "" {
		return nil, domain.NewUpstreamUnavailable(serviceName, fmt.Errorf("point %.4f,%.4f has no forecast URL", lat, lng))
	}

	var fc forecastResponse
	if err := c.fetch(ctx, point.Properties.Forecast, &fc); err != nil {
		return nil, err
	}
	if len(fc.Properties.Periods) == 0 {
		return nil, domain.NewUpstreamUnavailable(serviceName, errors.New("forecast has no periods"))
	}

	periods := make([]domain.ForecastPeriod, 0, len(fc.Properties.Periods))
	for _, p := range fc.Properties.Periods {
		start, _ := time.Parse(time.RFC3339, p.StartTime)
		var pop float64
		if p.ProbabilityOfPrecipitation.Value != nil {
			pop = *p.ProbabilityOfPrecipitation.Value
		}
		periods = append(periods, domain.ForecastPeriod{
			StartTime:         start,
			ShortForecast:     p.ShortForecast,
			PrecipProbability: pop,
		})
	}
	return periods, nil
}

// LatestObservation resolves the nearest observation station for a point and
// returns its latest report.
func (c *Client) LatestObservation(ctx context.Context, lat, lng float64) (domain.Observation, error) {
	point, err := c.lookupPoint(ctx, lat, lng)
	if err != nil {
		return domain.Observation{}, err
	}
	if point.Properties.ObservationStations == "" {
		return domain.Observation{}, domain.NewUpstreamUnavailable(serviceName, errors.New("point has no stations URL"))
	}

	var stations stationsResponse
	if err := c.fetch(ctx, point.Properties.ObservationStations, &stations); err != nil {
		return domain.Observation{}, err
	}
	if len(stations.Features) == 0 {
		return domain.Observation{}, domain.NewUpstreamUnavailable(serviceName, errors.New("no observation stations for point"))
	}
	station := stations.Features[0]

	var obs observationResponse
	if err := c.fetch(ctx, station.ID+"/observations/latest", &obs); err != nil {
		return domain.Observation{}, err
	}

	ts, _ := time.Parse(time.RFC3339, obs.Properties.Timestamp)
	var temp float64
	if obs.Properties.Temperature.Value != nil {
		temp = *obs.Properties.Temperature.Value
	}
	return domain.Observation{
		Station:     station.Properties.StationIdentifier,
		Description: obs.Properties.TextDescription,
		TempCelsius: temp,
		Timestamp:   ts,
	}, nil
}

func (c *Client) lookupPoint(ctx context.Context, lat, lng float64) (pointResponse, error) {
	var point pointResponse
	url := fmt.Sprintf("%s/points/%.4f,%.4f", c.baseURL, lat, lng)
	if err := c.fetch(ctx, url, &point); err != nil {
		return pointResponse{}, err
	}
	return point, nil
}

// fetch runs one GET under the retry policy, observing metrics per attempt,
// and classifies exhaustion as a typed timeout or unavailable error.
func (c *Client) fetch(ctx context.Context, fullURL string, out any) error {
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		start := time.Now()
		err := c.doRequest(ctx, fullURL, out)
		c.metrics.UpstreamDuration.WithLabelValues(serviceName).Observe(time.Since(start).Seconds())
		if err != nil {
			c.metrics.UpstreamRequests.WithLabelValues(serviceName, "error").Inc()
			c.logger.Warn("nws request failed", "url", fullURL, "error", err)
			return err
		}
		c.metrics.UpstreamRequests.WithLabelValues(serviceName, "success").Inc()
		return nil
	})
	if err != nil {
		if isTimeout(err) {
			return domain.NewUpstreamTimeout(serviceName, err)
		}
		return domain.NewUpstreamUnavailable(serviceName, err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("nws request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("nws API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// NWS API response types (trimmed to what we read).

type pointResponse struct {
	Properties struct {
		Forecast            string `json:"forecast"`
		ObservationStations string `json:"observationStations"`
	} `json:"properties"`
}

type forecastResponse struct {
	Properties struct {
		Periods []struct {
			StartTime                  string `json:"startTime"`
			ShortForecast              string `json:"shortForecast"`
			ProbabilityOfPrecipitation struct {
				Value *float64 `json:"value"`
			} `json:"probabilityOfPrecipitation"`
		} `json:"periods"`
	} `json:"properties"`
}

type stationsResponse struct {
	Features []struct {
		ID         string `json:"id"`
		Properties struct {
			StationIdentifier string `json:"stationIdentifier"`
		} `json:"properties"`
	} `json:"features"`
}

type observationResponse struct {
	Properties struct {
		Timestamp       string `json:"timestamp"`
		TextDescription string `json:"textDescription"`
		Temperature     struct {
			Value *float64 `json:"value"`
		} `json:"temperature"`
	} `json:"properties"`
}
