// Package nwps implements domain.FloodStageService against the NOAA National
// Water Prediction Service gauge catalog. Coverage is partial: many USGS
// sites have no NWPS entry, and some entries ship zeroed or inconsistent
// categories. Both cases surface as errors here; the domain resolver owns the
// calculated fallback.
package nwps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/flood-risk-engine/internal/domain"
	"github.com/couchcryptid/flood-risk-engine/internal/observability"
	"github.com/couchcryptid/flood-risk-engine/internal/retry"
)

const serviceName = "nwps"

// Client implements domain.FloodStageService.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	policy     retry.Policy
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an NWPS gauges client.
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

// Thresholds returns the official flood categories for a site.
func (c *Client) Thresholds(ctx context.Context, siteID string) (domain.FloodStageThresholds, error) {
	fullURL := fmt.Sprintf("%s/gauges/%s", c.baseURL, siteID)

	var payload gaugeResponse
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		start := time.Now()
		err := c.doRequest(ctx, fullURL, &payload)
		c.metrics.UpstreamDuration.WithLabelValues(serviceName).Observe(time.Since(start).Seconds())
		if err != nil {
			c.metrics.UpstreamRequests.WithLabelValues(serviceName, "error").Inc()
			return err
		}
		c.metrics.UpstreamRequests.WithLabelValues(serviceName, "success").Inc()
		return nil
	})
	if err != nil {
		return domain.FloodStageThresholds{}, domain.NewUpstreamUnavailable(serviceName, err)
	}

	cats := payload.Flood.Categories
	t := domain.FloodStageThresholds{
		Action:   cats.Action.Stage,
		Minor:    cats.Minor.Stage,
		Moderate: cats.Moderate.Stage,
		Major:    cats.Major.Stage,
		Source:   domain.SourceOfficial,
	}
	if !t.Valid() {
		return domain.FloodStageThresholds{}, domain.NewUpstreamUnavailable(serviceName,
			fmt.Errorf("gauge %s has incomplete flood categories", siteID))
	}
	return t, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("nwps request: %w", err)
	}
	defer resp.Body.Close()

	// 404 means the site has no catalog entry; no point retrying.
	if resp.StatusCode == http.StatusNotFound {
		return retry.Permanent(fmt.Errorf("nwps gauge not found"))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("nwps API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// NWPS gauge response types (trimmed to what we read).

type gaugeResponse struct {
	Flood struct {
		Categories struct {
			Action   category `json:"action"`
			Minor    category `json:"minor"`
			Moderate category `json:"moderate"`
			Major    category `json:"major"`
		} `json:"categories"`
	} `json:"flood"`
}

type category struct {
	Stage float64 `json:"stage"`
}
