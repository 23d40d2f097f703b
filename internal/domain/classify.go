package domain

// StageStatus labels where the current stage sits relative to the thresholds.
func StageStatus(currentStage float64, t FloodStageThresholds) string {
	switch {
	case currentStage >= t.Major:
		return "Major Flood"
	case currentStage >= t.Moderate:
		return "Moderate Flood"
	case currentStage >= t.Minor:
		return "Minor Flood"
	case currentStage >= t.Action:
		return "Action Stage"
	default:
		return "Normal"
	}
}

// Classify maps the score and raw stage comparisons onto a risk level.
// High triggers on any of: moderate flood stage reached, total score >= 75,
// minor stage reached with a strongly rising flow, or a near-flood stage
// ratio combined with heavy forecast rain. Medium is the softer analog.
func Classify(score RiskScore, currentStage float64, t FloodStageThresholds) RiskLevel {
	ratio := 0.0
	if t.Minor > 0 {
		ratio = currentStage / t.Minor
	}

	switch {
	case currentStage >= t.Moderate,
		score.Total >= 75,
		currentStage >= t.Minor && score.TrendFactor > 50,
		ratio > 0.9 && score.PrecipFactor > 60:
		return RiskHigh
	case currentStage >= t.Action,
		score.Total >= 50,
		ratio > 0.7 && (score.TrendFactor > 30 || score.PrecipFactor > 40):
		return RiskMedium
	default:
		return RiskLow
	}
}
