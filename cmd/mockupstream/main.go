// Command mockupstream serves synthetic USGS, NWS, and NWPS payloads so the
// service can run offline. It emits the same wire shapes as the real APIs
// with deterministic per-site data shaped by the selected scenario.
//
// Usage:
//
//	go run ./cmd/mockupstream -addr :9090 -scenario rising
//
// Then point the service at it:
//
//	USGS_BASE_URL=http://localhost:9090/nwis/iv \
//	NWS_BASE_URL=http://localhost:9090 \
//	NWPS_BASE_URL=http://localhost:9090/nwps/v1 \
//	go run ./cmd/floodrisk
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

const usgsTimeLayout = "2006-01-02T15:04:05.000-07:00"

// mockSite is one synthetic gauge. baseStage and baseFlow anchor the series;
// the scenario adds a trend on top.
type mockSite struct {
	id        string
	name      string
	lat, lng  float64
	baseStage float64
	baseFlow  float64
	// Official flood categories served by the NWPS endpoint. A zero action
	// stage means the site has no official thresholds (404 from NWPS),
	// forcing callers onto calculated fallbacks.
	action, minor, moderate, major float64
}

var sites = []mockSite{
	{id: "07332500", name: "Blue River near Blue, OK", lat: 33.99, lng: -96.24, baseStage: 4.2, baseFlow: 210, action: 10, minor: 12, moderate: 15, major: 18},
	{id: "07331600", name: "Red River at Denison Dam nr Denison, TX", lat: 33.82, lng: -96.57, baseStage: 6.8, baseFlow: 1400, action: 22, minor: 25, moderate: 30, major: 35},
	{id: "07332390", name: "Washita River nr Dickson, OK", lat: 34.23, lng: -96.98, baseStage: 9.5, baseFlow: 860},
}

// scenario shapes the synthetic data: per-reading stage delta and forecast
// precipitation probability.
type scenario struct {
	stageStep float64
	flowStep  float64
	pop       float64
	forecast  string
}

var scenarios = map[string]scenario{
	"calm":   {stageStep: 0, flowStep: 0, pop: 10, forecast: "Mostly Sunny"},
	"rising": {stageStep: 0.15, flowStep: 12, pop: 70, forecast: "Showers And Thunderstorms"},
	"flood":  {stageStep: 0.6, flowStep: 45, pop: 95, forecast: "Heavy Rain"},
}

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	scenarioName := flag.String("scenario", "rising", "data scenario: calm, rising, flood")
	flag.Parse()

	sc, ok := scenarios[*scenarioName]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown scenario %q\n", *scenarioName)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	srv := &mockServer{scenario: sc, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /nwis/iv", srv.handleUSGS)
	mux.HandleFunc("GET /points/", srv.handlePoints)
	mux.HandleFunc("GET /gridpoints/MOK/1,1/forecast", srv.handleForecast)
	mux.HandleFunc("GET /gridpoints/MOK/1,1/stations", srv.handleStations)
	mux.HandleFunc("GET /stations/KDUA/observations/latest", srv.handleObservation)
	mux.HandleFunc("GET /nwps/v1/gauges/{id}", srv.handleNWPS)

	logger.Info("mock upstream listening", "addr", *addr, "scenario", *scenarioName)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

type mockServer struct {
	scenario scenario
	logger   *slog.Logger
}

// handleUSGS emits an instantaneous-values response for the requested sites
// (or all sites if queried by bounding box), one time series per parameter.
func (s *mockServer) handleUSGS(w http.ResponseWriter, r *http.Request) {
	requested := map[string]bool{}
	if ids := r.URL.Query().Get("sites"); ids != "" {
		for _, id := range strings.Split(ids, ",") {
			requested[id] = true
		}
	}
	params := strings.Split(r.URL.Query().Get("parameterCd"), ",")

	now := time.Now().Truncate(15 * time.Minute)
	var series []any
	for _, site := range sites {
		if len(requested) > 0 && !requested[site.id] {
			continue
		}
		for _, p := range params {
			switch p {
			case "00065":
				series = append(series, s.timeSeries(site, p, "ft", site.baseStage, s.scenario.stageStep, now))
			case "00060":
				series = append(series, s.timeSeries(site, p, "ft3/s", site.baseFlow, s.scenario.flowStep, now))
			}
		}
	}

	writeJSON(w, map[string]any{"value": map[string]any{"timeSeries": series}})
}

// timeSeries builds eight readings ending at now, trending by step per reading.
func (s *mockServer) timeSeries(site mockSite, param, unit string, base, step float64, now time.Time) map[string]any {
	const readings = 8
	values := make([]map[string]string, 0, readings)
	for i := 0; i < readings; i++ {
		ts := now.Add(time.Duration(i-readings+1) * 15 * time.Minute)
		v := base + float64(i)*step
		values = append(values, map[string]string{
			"value":    fmt.Sprintf("%.2f", v),
			"dateTime": ts.Format(usgsTimeLayout),
		})
	}
	return map[string]any{
		"sourceInfo": map[string]any{
			"siteName": site.name,
			"siteCode": []map[string]string{{"value": site.id}},
			"geoLocation": map[string]any{
				"geogLocation": map[string]float64{"latitude": site.lat, "longitude": site.lng},
			},
		},
		"variable": map[string]any{
			"variableCode": []map[string]string{{"value": param}},
			"unit":         map[string]string{"unitCode": unit},
		},
		"values": []map[string]any{{"value": values}},
	}
}

func (s *mockServer) handlePoints(w http.ResponseWriter, r *http.Request) {
	base := "http://" + r.Host
	writeJSON(w, map[string]any{
		"properties": map[string]string{
			"forecast":            base + "/gridpoints/MOK/1,1/forecast",
			"observationStations": base + "/gridpoints/MOK/1,1/stations",
		},
	})
}

func (s *mockServer) handleForecast(w http.ResponseWriter, _ *http.Request) {
	now := time.Now().Truncate(time.Hour)
	periods := make([]map[string]any, 0, 4)
	for i := 0; i < 4; i++ {
		periods = append(periods, map[string]any{
			"startTime":     now.Add(time.Duration(i) * 12 * time.Hour).Format(time.RFC3339),
			"shortForecast": s.scenario.forecast,
			"probabilityOfPrecipitation": map[string]any{
				"value": s.scenario.pop,
			},
		})
	}
	writeJSON(w, map[string]any{"properties": map[string]any{"periods": periods}})
}

func (s *mockServer) handleStations(w http.ResponseWriter, r *http.Request) {
	base := "http://" + r.Host
	writeJSON(w, map[string]any{
		"features": []map[string]any{
			{
				"id":         base + "/stations/KDUA",
				"properties": map[string]string{"stationIdentifier": "KDUA"},
			},
		},
	})
}

func (s *mockServer) handleObservation(w http.ResponseWriter, _ *http.Request) {
	desc := "Fair"
	if s.scenario.pop >= 50 {
		desc = "Light Rain"
	}
	writeJSON(w, map[string]any{
		"properties": map[string]any{
			"timestamp":       time.Now().UTC().Format(time.RFC3339),
			"textDescription": desc,
			"temperature":     map[string]float64{"value": 18.3},
		},
	})
}

func (s *mockServer) handleNWPS(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	for _, site := range sites {
		if site.id != id || site.action == 0 {
			continue
		}
		writeJSON(w, map[string]any{
			"flood": map[string]any{
				"categories": map[string]any{
					"action":   map[string]float64{"stage": site.action},
					"minor":    map[string]float64{"stage": site.minor},
					"moderate": map[string]float64{"stage": site.moderate},
					"major":    map[string]float64{"stage": site.major},
				},
			},
		})
		return
	}
	http.NotFound(w, r)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort mock response
}
