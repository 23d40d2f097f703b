// Command assess runs one flood risk assessment from the command line and
// prints the result as indented JSON. It talks to the live USGS, NWS, and
// NWPS APIs using the same adapters as the service.
//
// Usage:
//
//	go run ./cmd/assess -lat 33.99 -lng -96.39 -radius 30
//	go run ./cmd/assess -lat 33.99 -lng -96.39 -sites 07332500,07331600
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/flood-risk-engine/internal/adapter/nwps"
	"github.com/couchcryptid/flood-risk-engine/internal/adapter/nws"
	"github.com/couchcryptid/flood-risk-engine/internal/adapter/usgs"
	"github.com/couchcryptid/flood-risk-engine/internal/config"
	"github.com/couchcryptid/flood-risk-engine/internal/engine"
	"github.com/couchcryptid/flood-risk-engine/internal/observability"
	"github.com/couchcryptid/flood-risk-engine/internal/retry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	lat := flag.Float64("lat", 0, "latitude of the area center")
	lng := flag.Float64("lng", 0, "longitude of the area center")
	radius := flag.Float64("radius", 0, "search radius in miles (default 25)")
	sites := flag.String("sites", "", "comma-separated gauge site ids (overrides radius search)")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall assessment deadline")
	flag.Parse()

	if *lat == 0 && *lng == 0 {
		flag.Usage()
		return fmt.Errorf("missing required flags: -lat, -lng")
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.LogLevel = "warn"
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetricsForTesting()

	policy := retry.Policy{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay}

	// One-shot run: no caching or rate gating, each upstream is hit once.
	gauges := usgs.NewClient(cfg.USGSBaseURL, cfg.UserAgent, cfg.UpstreamTimeout, policy, metrics, logger)
	weather := nws.NewClient(cfg.NWSBaseURL, cfg.UserAgent, cfg.UpstreamTimeout, policy, metrics, logger)
	floodStages := nwps.NewClient(cfg.NWPSBaseURL, cfg.UserAgent, cfg.UpstreamTimeout, policy, metrics, logger)

	eng := engine.New(gauges, weather, floodStages, nil, nil,
		cfg.GaugeLookback, cfg.MaxConcurrentRivers, logger, metrics)

	req := engine.Request{Lat: *lat, Lng: *lng, Radius: *radius}
	if *sites != "" {
		for _, id := range strings.Split(*sites, ",") {
			if id = strings.TrimSpace(id); id != "" {
				req.Rivers = append(req.Rivers, id)
			}
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	assessment, err := eng.Assess(ctx, req)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(assessment, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
