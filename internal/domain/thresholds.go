package domain

import (
	"context"
	"log/slog"
)

// CalculateFallbackThresholds derives a threshold set from the current stage
// when no authoritative set is available. The multipliers are anchored on the
// observed stage; the floors keep the set strictly monotonic even when the
// stage is near zero.
func CalculateFallbackThresholds(currentStage float64) FloodStageThresholds {
	base := currentStage
	if base < 1 {
		base = 1
	}
	return FloodStageThresholds{
		Action:   max(1, base*0.8),
		Minor:    max(2, base*1.2),
		Moderate: max(3, base*1.5),
		Major:    max(4, base*2.0),
		Source:   SourceCalculated,
	}
}

// ResolveThresholds attempts the authoritative site-keyed lookup and degrades
// to the calculated fallback when the lookup fails, is missing, or violates
// the monotonic invariant. The result always satisfies Valid() and carries a
// source tag so consumers can display the provenance.
func ResolveThresholds(ctx context.Context, svc FloodStageService, siteID string, currentStage float64, logger *slog.Logger) FloodStageThresholds {
	if svc != nil {
		official, err := svc.Thresholds(ctx, siteID)
		if err != nil {
			logger.Warn("flood stage lookup failed, using calculated thresholds",
				"site_id", siteID,
				"error", err,
			)
		} else if !official.Valid() {
			logger.Warn("flood stage lookup returned non-monotonic thresholds, using calculated",
				"site_id", siteID,
				"action", official.Action,
				"minor", official.Minor,
				"moderate", official.Moderate,
				"major", official.Major,
			)
		} else {
			official.Source = SourceOfficial
			return official
		}
	}
	return CalculateFallbackThresholds(currentStage)
}
