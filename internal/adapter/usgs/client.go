// Package usgs implements domain.GaugeService against the USGS
// Instantaneous Values API.
package usgs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/flood-risk-engine/internal/domain"
	"github.com/couchcryptid/flood-risk-engine/internal/observability"
	"github.com/couchcryptid/flood-risk-engine/internal/retry"
)

const serviceName = "usgs"

// Client implements domain.GaugeService using waterservices.usgs.gov.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	policy     retry.Policy
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a USGS instantaneous-values client. Each attempt gets an
// independent timeout; the retry policy governs the attempt budget.
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

// SiteData returns one site's recent measurements for the given parameters.
func (c *Client) SiteData(ctx context.Context, siteID string, params []domain.Parameter, lookback time.Duration) (domain.GaugeSite, error) {
	q := url.Values{
		"format":      {"json"},
		"sites":       {siteID},
		"parameterCd": {joinParams(params)},
		"period":      {isoPeriod(lookback)},
	}

	sites, err := c.fetchSites(ctx, q)
	if err != nil {
		return domain.GaugeSite{}, err
	}
	if len(sites) == 0 {
		return domain.GaugeSite{}, domain.NewUpstreamUnavailable(serviceName, fmt.Errorf("no data for site %s", siteID))
	}
	return sites[0], nil
}

// SitesInBounds returns all sites reporting inside the bounding box.
func (c *Client) SitesInBounds(ctx context.Context, box domain.BoundingBox, params []domain.Parameter, lookback time.Duration) ([]domain.GaugeSite, error) {
	// USGS bBox order is west,south,east,north.
	bbox := fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", box.West, box.South, box.East, box.North)
	q := url.Values{
		"format":      {"json"},
		"bBox":        {bbox},
		"parameterCd": {joinParams(params)},
		"period":      {isoPeriod(lookback)},
		"siteStatus":  {"active"},
	}

	return c.fetchSites(ctx, q)
}

func (c *Client) fetchSites(ctx context.Context, q url.Values) ([]domain.GaugeSite, error) {
	fullURL := c.baseURL + "/?" + q.Encode()

	var payload ivResponse
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		payload = ivResponse{}
		start := time.Now()
		err := c.doRequest(ctx, fullURL, &payload)
		c.metrics.UpstreamDuration.WithLabelValues(serviceName).Observe(time.Since(start).Seconds())
		if err != nil {
			c.metrics.UpstreamRequests.WithLabelValues(serviceName, "error").Inc()
			c.logger.Warn("usgs request failed", "error", err)
			return err
		}
		c.metrics.UpstreamRequests.WithLabelValues(serviceName, "success").Inc()
		return nil
	})
	if err != nil {
		if isTimeout(err) {
			return nil, domain.NewUpstreamTimeout(serviceName, err)
		}
		return nil, domain.NewUpstreamUnavailable(serviceName, err)
	}

	return mapSites(payload), nil
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
		return fmt.Errorf("usgs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("usgs API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// isTimeout distinguishes deadline failures from other upstream errors so the
// caller surfaces a typed timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// mapSites merges the per-parameter time series into one GaugeSite per site
// code, measurements sorted by time ascending.
func mapSites(payload ivResponse) []domain.GaugeSite {
	bySite := make(map[string]*domain.GaugeSite)
	var order []string

	for _, ts := range payload.Value.TimeSeries {
		siteID := ts.SourceInfo.siteID()
		if siteID == "" {
			continue
		}

		site, ok := bySite[siteID]
		if !ok {
			site = &domain.GaugeSite{
				ID:   siteID,
				Name: ts.SourceInfo.SiteName,
				Geo: domain.Geo{
					Lat: ts.SourceInfo.GeoLocation.GeogLocation.Latitude,
					Lng: ts.SourceInfo.GeoLocation.GeogLocation.Longitude,
				},
			}
			bySite[siteID] = site
			order = append(order, siteID)
		}

		param := domain.Parameter(ts.Variable.code())
		if param == domain.ParameterStage && site.Unit == "" {
			site.Unit = ts.Variable.Unit.UnitCode
		}

		for _, block := range ts.Values {
			for _, v := range block.Value {
				value, err := strconv.ParseFloat(v.Value, 64)
				if err != nil {
					continue
				}
				// USGS uses large negative sentinels for missing readings.
				if value <= -99999 {
					continue
				}
				t, err := time.Parse(usgsTimeLayout, v.DateTime)
				if err != nil {
					continue
				}
				site.Measurements = append(site.Measurements, domain.Measurement{
					Parameter: param,
					Value:     value,
					Timestamp: t.UTC(),
				})
			}
		}
	}

	out := make([]domain.GaugeSite, 0, len(order))
	for _, id := range order {
		site := bySite[id]
		sort.SliceStable(site.Measurements, func(i, j int) bool {
			return site.Measurements[i].Timestamp.Before(site.Measurements[j].Timestamp)
		})
		if n := len(site.Measurements); n > 0 {
			site.UpdatedAt = site.Measurements[n-1].Timestamp
		}
		out = append(out, *site)
	}
	return out
}

func joinParams(params []domain.Parameter) string {
	if len(params) == 0 {
		params = []domain.Parameter{domain.ParameterDischarge, domain.ParameterStage}
	}
	codes := make([]string, len(params))
	for i, p := range params {
		codes[i] = string(p)
	}
	return strings.Join(codes, ",")
}

// isoPeriod renders a lookback duration as an ISO-8601 period in whole hours,
// e.g. 24h -> "PT24H". USGS accepts PT#H for sub-week ranges.
func isoPeriod(d time.Duration) string {
	hours := int(d.Hours())
	if hours < 1 {
		hours = 1
	}
	return fmt.Sprintf("PT%dH", hours)
}

// usgsTimeLayout matches dateTime values such as
// "2026-03-14T06:00:00.000-06:00".
const usgsTimeLayout = "2006-01-02T15:04:05.000-07:00"

// USGS Instantaneous Values response types (trimmed to what we read).

type ivResponse struct {
	Value struct {
		TimeSeries []timeSeries `json:"timeSeries"`
	} `json:"value"`
}

type timeSeries struct {
	SourceInfo sourceInfo `json:"sourceInfo"`
	Variable   variable   `json:"variable"`
	Values     []struct {
		Value []struct {
			Value    string `json:"value"`
			DateTime string `json:"dateTime"`
		} `json:"value"`
	} `json:"values"`
}

type sourceInfo struct {
	SiteName string `json:"siteName"`
	SiteCode []struct {
		Value string `json:"value"`
	} `json:"siteCode"`
	GeoLocation struct {
		GeogLocation struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"geogLocation"`
	} `json:"geoLocation"`
}

func (s sourceInfo) siteID() string {
	if len(s.SiteCode) == 0 {
		return ""
	}
	return s.SiteCode[0].Value
}

type variable struct {
	VariableCode []struct {
		Value string `json:"value"`
	} `json:"variableCode"`
	Unit struct {
		UnitCode string `json:"unitCode"`
	} `json:"unit"`
}

func (v variable) code() string {
	if len(v.VariableCode) == 0 {
		return ""
	}
	return v.VariableCode[0].Value
}
