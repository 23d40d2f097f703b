package domain

import (
	"math"
	"strings"
)

// Weighting of the three risk factors. An earlier revision of this policy
// used 0.40/0.25/0.35; the current weighting leans harder on observed stage
// because forecast PoP proved the noisiest of the three inputs.
const (
	stageWeight  = 0.55
	trendWeight  = 0.30
	precipWeight = 0.15
)

// trendWindow is how many of the newest readings feed the trend ratio.
const trendWindow = 6

// FlowTrendRatio computes the fractional change across the most recent
// readings of the series: (last-first)/first over a window of up to six
// values. Returns 0 when there are fewer than two readings or the first
// value is zero.
func FlowTrendRatio(series []Measurement) float64 {
	if len(series) < 2 {
		return 0
	}
	if len(series) > trendWindow {
		series = series[len(series)-trendWindow:]
	}
	first := series[0].Value
	if first == 0 {
		return 0
	}
	return (series[len(series)-1].Value - first) / first
}

// ClassifyTrend maps a trend ratio onto a direction label.
func ClassifyTrend(ratio float64) TrendDirection {
	switch {
	case ratio > 0.05:
		return TrendIncreasing
	case ratio < -0.05:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// rainKeywords mark forecast periods that contribute to the precipitation
// metric. NWS short forecasts are free text ("Chance Showers And
// Thunderstorms"), so matching is case-insensitive substring.
var rainKeywords = []string{"rain", "shower", "storm", "thunder", "drizzle", "precipitation"}

// PrecipitationMetric averages the probability of precipitation across
// forecast periods that mention rain or storms. Periods with no rain mention
// are excluded no matter their PoP; an all-clear forecast yields 0.
func PrecipitationMetric(periods []ForecastPeriod) float64 {
	var sum float64
	var n int
	for _, p := range periods {
		desc := strings.ToLower(p.ShortForecast)
		for _, kw := range rainKeywords {
			if strings.Contains(desc, kw) {
				sum += p.PrecipProbability
				n++
				break
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Score computes the weighted risk score from the current stage, resolved
// thresholds, flow trend ratio, and precipitation metric. Pure: no I/O, no
// state. All factors and the total are clamped to [0,100].
func Score(currentStage float64, t FloodStageThresholds, trendRatio, precipMetric float64) RiskScore {
	stage := stageFactor(currentStage, t)
	trend := trendFactor(trendRatio)
	precip := precipFactor(precipMetric)

	total := stageWeight*stage + trendWeight*trend + precipWeight*precip
	return RiskScore{
		StageFactor:  stage,
		TrendFactor:  trend,
		PrecipFactor: precip,
		Total:        clamp(total, 0, 100),
	}
}

// stageFactor maps the stage/minor ratio onto 0-100. The ramp is quadratic
// below 0.7 so a half-full channel barely registers, then linear through the
// 30-70 and 70-95 bands, saturating once minor flood stage is reached.
func stageFactor(currentStage float64, t FloodStageThresholds) float64 {
	if t.Minor <= 0 {
		return 0
	}
	ratio := currentStage / t.Minor
	switch {
	case ratio < 0:
		return 0
	case ratio < 0.7:
		r := ratio / 0.7
		return clamp(30*r*r, 0, 100)
	case ratio < 0.9:
		return clamp(30+(ratio-0.7)/0.2*40, 0, 100)
	case ratio < 1.0:
		return clamp(70+(ratio-0.9)/0.1*25, 0, 100)
	default:
		return clamp(95+(ratio-1.0)*20, 0, 100)
	}
}

// trendFactor maps a flow trend ratio onto 0-100. Rapid rises dominate; the
// stable band interpolates on the magnitude of the movement so a perfectly
// flat river sits at the band floor rather than its midpoint.
func trendFactor(ratio float64) float64 {
	switch {
	case ratio > 0.5:
		return clamp(60+(ratio-0.5)*80, 60, 100)
	case ratio > 0.2:
		return clamp(30+(ratio-0.2)/0.3*30, 30, 60)
	case ratio >= -0.2:
		return clamp(10+math.Abs(ratio)/0.2*25, 10, 35)
	default:
		return clamp(10+(ratio+0.2)*25, 0, 10)
	}
}

// precipFactor linearly scales the average rain-period PoP, capped at 100.
func precipFactor(metric float64) float64 {
	return clamp(metric*1.2, 0, 100)
}

// FloodProbability clamps the total score to [5,95]: the heuristic is never
// fully certain in either direction.
func FloodProbability(score RiskScore) float64 {
	return clamp(math.Round(score.Total), 5, 95)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
