package domain

// PredictRiver assembles the full per-river assessment from fetched site
// data, resolved thresholds, and the area forecast. Pure apart from the
// package clock; all network fetching happens before this point.
func PredictRiver(site GaugeSite, t FloodStageThresholds, periods []ForecastPeriod) RiverPrediction {
	var currentFlow, currentStage float64
	if m, ok := site.Latest(ParameterDischarge); ok {
		currentFlow = m.Value
	}
	if m, ok := site.Latest(ParameterStage); ok {
		currentStage = m.Value
	}

	// Trend prefers discharge; stage is the fallback for sites that only
	// report gage height.
	trendSeries := site.Series(ParameterDischarge)
	if len(trendSeries) < 2 {
		trendSeries = site.Series(ParameterStage)
	}
	trendRatio := FlowTrendRatio(trendSeries)
	precipMetric := PrecipitationMetric(periods)

	score := Score(currentStage, t, trendRatio, precipMetric)
	level := Classify(score, currentStage, t)

	return RiverPrediction{
		SiteID:           site.ID,
		SiteName:         site.Name,
		Geo:              site.Geo,
		CurrentFlow:      currentFlow,
		CurrentStage:     currentStage,
		FlowTrendRatio:   trendRatio,
		FlowTrend:        ClassifyTrend(trendRatio),
		Thresholds:       t,
		FloodStage:       StageStatus(currentStage, t),
		Score:            score,
		FloodProbability: FloodProbability(score),
		RiskLevel:        level,
		TimeToFlood:      EstimateTimeToFlood(currentStage, t, trendRatio, precipMetric),
		Recommendations:  riverRecommendations(level),
	}
}
