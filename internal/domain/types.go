package domain

import "time"

// Parameter identifies a USGS instantaneous-values parameter code.
type Parameter string

const (
	// ParameterDischarge is streamflow in cubic feet per second (USGS 00060).
	ParameterDischarge Parameter = "00060"
	// ParameterStage is gage height in feet (USGS 00065).
	ParameterStage Parameter = "00065"
)

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingBox is a west/south/east/north box used for area gauge queries.
type BoundingBox struct {
	West  float64
	South float64
	East  float64
	North float64
}

// BoundingBoxAround builds a box of approximately radiusMiles around a point.
// One degree of latitude is ~69 miles; longitude is not corrected for
// latitude, which matches how the upstream site queries are issued.
func BoundingBoxAround(lat, lng, radiusMiles float64) BoundingBox {
	d := radiusMiles / 69.0
	return BoundingBox{
		West:  lng - d,
		South: lat - d,
		East:  lng + d,
		North: lat + d,
	}
}

// Measurement is a single gauge reading for one parameter.
type Measurement struct {
	Parameter Parameter `json:"parameter"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// GaugeSite is a monitoring site with its recent readings, ordered by time
// ascending so the newest reading is last.
type GaugeSite struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Geo          Geo           `json:"geo"`
	Unit         string        `json:"unit,omitempty"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Measurements []Measurement `json:"measurements,omitempty"`
}

// Latest returns the most recent measurement for the given parameter.
func (s GaugeSite) Latest(p Parameter) (Measurement, bool) {
	for i := len(s.Measurements) - 1; i >= 0; i-- {
		if s.Measurements[i].Parameter == p {
			return s.Measurements[i], true
		}
	}
	return Measurement{}, false
}

// Series returns all measurements for the given parameter in time order.
func (s GaugeSite) Series(p Parameter) []Measurement {
	var out []Measurement
	for _, m := range s.Measurements {
		if m.Parameter == p {
			out = append(out, m)
		}
	}
	return out
}

// ThresholdSource tags where a threshold set came from.
type ThresholdSource string

const (
	// SourceOfficial marks thresholds from the authoritative NWPS lookup.
	SourceOfficial ThresholdSource = "official"
	// SourceCalculated marks the stage-derived fallback.
	SourceCalculated ThresholdSource = "calculated"
)

// FloodStageThresholds holds the four graduated flood severity levels in feet.
type FloodStageThresholds struct {
	Action   float64         `json:"action"`
	Minor    float64         `json:"minor"`
	Moderate float64         `json:"moderate"`
	Major    float64         `json:"major"`
	Source   ThresholdSource `json:"source"`
}

// Valid reports whether the thresholds satisfy the strict monotonic
// invariant action < minor < moderate < major with a positive action stage.
func (t FloodStageThresholds) Valid() bool {
	return t.Action > 0 && t.Action < t.Minor && t.Minor < t.Moderate && t.Moderate < t.Major
}

// ForecastPeriod is one NWS forecast window.
type ForecastPeriod struct {
	StartTime     time.Time `json:"start_time"`
	ShortForecast string    `json:"short_forecast"`
	// PrecipProbability is the probability of precipitation, 0-100.
	PrecipProbability float64 `json:"precip_probability"`
}

// Observation is the latest report from an NWS observation station.
type Observation struct {
	Station     string    `json:"station,omitempty"`
	Description string    `json:"description,omitempty"`
	TempCelsius float64   `json:"temp_celsius,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// TrendDirection classifies the recent flow movement at a site.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "Increasing"
	TrendDecreasing TrendDirection = "Decreasing"
	TrendStable     TrendDirection = "Stable"
)

// RiskLevel is the categorical flood risk verdict.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// RiskScore holds the three clamped factor values and their weighted total.
type RiskScore struct {
	StageFactor  float64 `json:"stage_factor"`
	TrendFactor  float64 `json:"trend_factor"`
	PrecipFactor float64 `json:"precip_factor"`
	Total        float64 `json:"total"`
}

// RiverPrediction is the per-river assessment result.
type RiverPrediction struct {
	SiteID           string               `json:"site_id"`
	SiteName         string               `json:"site_name"`
	Geo              Geo                  `json:"geo"`
	CurrentFlow      float64              `json:"current_flow"`
	CurrentStage     float64              `json:"current_stage"`
	FlowTrendRatio   float64              `json:"flow_trend_ratio"`
	FlowTrend        TrendDirection       `json:"flow_trend"`
	Thresholds       FloodStageThresholds `json:"thresholds"`
	FloodStage       string               `json:"flood_stage"`
	Score            RiskScore            `json:"score"`
	FloodProbability float64              `json:"flood_probability"`
	RiskLevel        RiskLevel            `json:"risk_level"`
	TimeToFlood      string               `json:"time_to_flood"`
	Recommendations  []string             `json:"recommendations"`
}

// AreaAssessment combines all river predictions for a requested area.
type AreaAssessment struct {
	Rivers          []RiverPrediction `json:"rivers"`
	AreaPrecip      float64           `json:"area_precip"`
	Observation     *Observation      `json:"observation,omitempty"`
	OverallRisk     RiskLevel         `json:"overall_risk"`
	Recommendations []string          `json:"recommendations"`
	GeneratedAt     time.Time         `json:"generated_at"`
}
