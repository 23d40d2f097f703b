package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTimeToFlood(t *testing.T) {
	tests := []struct {
		name     string
		stage    float64
		trend    float64
		precip   float64
		expected string
	}{
		{"at major stage", 18, 0, 0, "Major flooding now"},
		{"at moderate stage", 15, 0, 0, "Moderate flooding now"},
		{"at minor stage", 12, 0, 0, "Minor flooding now"},

		{"action-adjacent with surge and rain", 11, 0.4, 80, "1-2 hours"},
		{"action-adjacent rising", 11, 0.2, 20, "2-6 hours"},
		{"action-adjacent wet forecast", 11, 0, 65, "2-6 hours"},
		{"action-adjacent steady", 11, 0, 20, "6-12 hours"},

		{"high band with surge and rain", 9, 0.4, 80, "6-12 hours"},
		{"high band rising", 9, 0.2, 20, "12-24 hours"},
		{"high band steady", 9, 0, 20, "1-2 days"},

		{"mid band rising and wet", 6, 0.3, 70, "1-2 days"},
		{"mid band wet", 6, 0, 55, "2-3 days"},
		{"mid band steady", 6, 0, 20, "3-5 days"},

		{"low band rising and very wet", 3, 0.3, 75, "3-5 days"},
		{"low band wet", 3, 0, 55, "1-2 weeks"},
		{"low band dry and falling", 3, -0.1, 10, "No immediate threat"},
		{"low band default", 3, 0.1, 40, "Monitor conditions"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := EstimateTimeToFlood(tc.stage, testThresholds, tc.trend, tc.precip)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestEstimateTimeToFlood_Deterministic(t *testing.T) {
	a := EstimateTimeToFlood(9.5, testThresholds, 0.12, 45)
	b := EstimateTimeToFlood(9.5, testThresholds, 0.12, 45)
	assert.Equal(t, a, b)
}
