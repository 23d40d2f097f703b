package domain

// EstimateTimeToFlood maps the current conditions onto a categorical
// time-window label. Active flooding short-circuits to an "X flooding now"
// label; otherwise a decision ladder keyed on the stage ratio walks from the
// most urgent window to the least, falling through to "Monitor conditions".
// Deterministic and side-effect-free.
func EstimateTimeToFlood(currentStage float64, t FloodStageThresholds, trendRatio, precipMetric float64) string {
	switch {
	case currentStage >= t.Major:
		return "Major flooding now"
	case currentStage >= t.Moderate:
		return "Moderate flooding now"
	case currentStage >= t.Minor:
		return "Minor flooding now"
	}

	ratio := 0.0
	if t.Minor > 0 {
		ratio = currentStage / t.Minor
	}

	switch {
	case ratio > 0.8:
		// Action-adjacent: the channel is nearly full.
		switch {
		case trendRatio > 0.3 && precipMetric >= 70:
			return "1-2 hours"
		case trendRatio > 0.1 || precipMetric >= 60:
			return "2-6 hours"
		default:
			return "6-12 hours"
		}
	case ratio > 0.6:
		switch {
		case trendRatio > 0.3 && precipMetric >= 70:
			return "6-12 hours"
		case trendRatio > 0.1 || precipMetric >= 60:
			return "12-24 hours"
		default:
			return "1-2 days"
		}
	case ratio > 0.4:
		switch {
		case trendRatio > 0.2 && precipMetric >= 60:
			return "1-2 days"
		case precipMetric >= 50:
			return "2-3 days"
		default:
			return "3-5 days"
		}
	default:
		switch {
		case trendRatio > 0.2 && precipMetric >= 70:
			return "3-5 days"
		case precipMetric >= 50:
			return "1-2 weeks"
		case trendRatio <= 0 && precipMetric < 30:
			return "No immediate threat"
		default:
			return "Monitor conditions"
		}
	}
}
