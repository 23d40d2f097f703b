package domain

// Aggregate combines per-river predictions and the area precipitation metric
// into an area-wide verdict. Any High river or very heavy forecast rain makes
// the area High; more than one Medium river or substantial rain makes it
// Medium.
func Aggregate(predictions []RiverPrediction, areaPrecip float64) AreaAssessment {
	overall := overallRisk(predictions, areaPrecip)

	return AreaAssessment{
		Rivers:          predictions,
		AreaPrecip:      areaPrecip,
		OverallRisk:     overall,
		Recommendations: areaRecommendations(overall),
		GeneratedAt:     clock.Now().UTC(),
	}
}

func overallRisk(predictions []RiverPrediction, areaPrecip float64) RiskLevel {
	var mediums int
	for _, p := range predictions {
		switch p.RiskLevel {
		case RiskHigh:
			return RiskHigh
		case RiskMedium:
			mediums++
		}
	}
	if areaPrecip > 80 {
		return RiskHigh
	}
	if mediums > 1 || areaPrecip > 50 {
		return RiskMedium
	}
	return RiskLow
}

// Recommendation text is templated per tier, not per river. The wording is
// intentionally non-prescriptive: this is a heuristic screen, not official
// guidance.
func riverRecommendations(level RiskLevel) []string {
	switch level {
	case RiskHigh:
		return []string{
			"Avoid low-lying areas near this river",
			"Prepare for possible evacuation",
			"Monitor official NWS alerts for this gauge",
		}
	case RiskMedium:
		return []string{
			"Avoid riverbanks and low water crossings",
			"Check conditions before travel near this river",
		}
	default:
		return []string{
			"No special precautions needed",
		}
	}
}

func areaRecommendations(level RiskLevel) []string {
	switch level {
	case RiskHigh:
		return []string{
			"Flooding is likely in parts of this area",
			"Never drive through flooded roadways",
			"Review your evacuation route now",
			"Follow official emergency guidance",
		}
	case RiskMedium:
		return []string{
			"Conditions favor localized flooding",
			"Avoid low water crossings",
			"Recheck the forecast before outdoor plans",
		}
	default:
		return []string{
			"No widespread flood threat at this time",
			"Conditions can change; check back after heavy rain",
		}
	}
}
