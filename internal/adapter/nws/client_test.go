package nws

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/flood-risk-engine/internal/cache"
	"github.com/couchcryptid/flood-risk-engine/internal/domain"
	"github.com/couchcryptid/flood-risk-engine/internal/observability"
	"github.com/couchcryptid/flood-risk-engine/internal/retry"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	return NewClient(
		baseURL,
		"flood-risk-engine/test",
		2*time.Second,
		retry.Policy{MaxAttempts: 1},
		observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

// newNWSServer serves the point/forecast/stations/observation endpoints with
// canned payloads, cross-linking URLs the way the real API does.
func newNWSServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("GET /points/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "flood-risk-engine/test", r.Header.Get("User-Agent"))
		fmt.Fprintf(w, `{"properties":{"forecast":"%s/gridpoints/OUN/1,2/forecast","observationStations":"%s/gridpoints/OUN/1,2/stations"}}`, srv.URL, srv.URL)
	})
	mux.HandleFunc("GET /gridpoints/OUN/1,2/forecast", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"properties":{"periods":[
			{"startTime":"2026-03-14T06:00:00-05:00","shortForecast":"Showers And Thunderstorms","probabilityOfPrecipitation":{"value":80}},
			{"startTime":"2026-03-14T18:00:00-05:00","shortForecast":"Mostly Sunny","probabilityOfPrecipitation":{"value":null}}
		]}}`))
	})
	mux.HandleFunc("GET /gridpoints/OUN/1,2/stations", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"features":[{"id":"%s/stations/KDUA","properties":{"stationIdentifier":"KDUA"}}]}`, srv.URL)
	})
	mux.HandleFunc("GET /stations/KDUA/observations/latest", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"properties":{"timestamp":"2026-03-14T05:55:00+00:00","textDescription":"Light Rain","temperature":{"value":18.3}}}`))
	})

	srv = httptest.NewServer(mux)
	return srv
}

func TestClient_Forecast(t *testing.T) {
	srv := newNWSServer(t)
	defer srv.Close()

	periods, err := testClient(srv.URL).Forecast(context.Background(), 33.99, -96.24)
	require.NoError(t, err)
	require.Len(t, periods, 2)

	assert.Equal(t, "Showers And Thunderstorms", periods[0].ShortForecast)
	assert.Equal(t, 80.0, periods[0].PrecipProbability)
	assert.Equal(t, 0.0, periods[1].PrecipProbability, "null PoP maps to zero")
	assert.Equal(t, time.Date(2026, 3, 14, 6, 0, 0, 0, time.FixedZone("", -5*3600)).Unix(), periods[0].StartTime.Unix())
}

func TestClient_LatestObservation(t *testing.T) {
	srv := newNWSServer(t)
	defer srv.Close()

	obs, err := testClient(srv.URL).LatestObservation(context.Background(), 33.99, -96.24)
	require.NoError(t, err)

	assert.Equal(t, "KDUA", obs.Station)
	assert.Equal(t, "Light Rain", obs.Description)
	assert.Equal(t, 18.3, obs.TempCelsius)
}

func TestClient_Forecast_EmptyPeriodsIsUpstreamUnavailable(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("GET /points/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"properties":{"forecast":"%s/forecast"}}`, srv.URL)
	})
	mux.HandleFunc("GET /forecast", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"properties":{"periods":[]}}`))
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	_, err := testClient(srv.URL).Forecast(context.Background(), 33.99, -96.24)
	require.Error(t, err)
	assert.Equal(t, domain.CodeUpstreamUnavailable, domain.AsError(err).Code)
}

func TestClient_Forecast_UpstreamErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Forecast(context.Background(), 33.99, -96.24)
	require.Error(t, err)
	assert.Equal(t, domain.CodeUpstreamUnavailable, domain.AsError(err).Code)
}

// --- cached decorator ---

type countingWeatherService struct {
	forecastCalls int
	obsCalls      int
}

func (m *countingWeatherService) Forecast(_ context.Context, _, _ float64) ([]domain.ForecastPeriod, error) {
	m.forecastCalls++
	return []domain.ForecastPeriod{{ShortForecast: "Rain", PrecipProbability: 60}}, nil
}

func (m *countingWeatherService) LatestObservation(_ context.Context, _, _ float64) (domain.Observation, error) {
	m.obsCalls++
	return domain.Observation{Station: "KDUA"}, nil
}

func newCachedForTest(inner domain.WeatherService, clk clockwork.Clock) *CachedWeatherService {
	return NewCachedWeatherService(
		inner,
		cache.NewTTLCache[[]domain.ForecastPeriod](clk),
		cache.NewTTLCache[domain.Observation](clk),
		cache.NewRateGate(clk, map[string]time.Duration{RateClass: time.Second}),
		5*time.Minute,
		observability.NewMetricsForTesting(),
	)
}

func TestCachedWeatherService_ForecastCacheHit(t *testing.T) {
	clk := clockwork.NewFakeClock()
	inner := &countingWeatherService{}
	cached := newCachedForTest(inner, clk)

	_, err := cached.Forecast(context.Background(), 33.99, -96.24)
	require.NoError(t, err)
	_, err = cached.Forecast(context.Background(), 33.99, -96.24)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.forecastCalls)
}

func TestCachedWeatherService_NearbyPointsShareEntry(t *testing.T) {
	clk := clockwork.NewFakeClock()
	inner := &countingWeatherService{}
	cached := newCachedForTest(inner, clk)

	_, err := cached.Forecast(context.Background(), 33.9901, -96.2401)
	require.NoError(t, err)
	_, err = cached.Forecast(context.Background(), 33.9903, -96.2398)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.forecastCalls, "keys round to the same grid cell")
}

func TestCachedWeatherService_RateGateOnMiss(t *testing.T) {
	clk := clockwork.NewFakeClock()
	inner := &countingWeatherService{}
	cached := newCachedForTest(inner, clk)

	_, err := cached.Forecast(context.Background(), 33.99, -96.24)
	require.NoError(t, err)

	_, err = cached.Forecast(context.Background(), 40.0, -100.0)
	require.Error(t, err)
	assert.Equal(t, domain.CodeRateLimited, domain.AsError(err).Code)
}
