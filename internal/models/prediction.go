package models

import (
	"strings"
	"time"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskVeryHigh RiskLevel = "VeryHigh"
)

// RiskFromProbability buckets a 0..1 dropoff probability.
func RiskFromProbability(p float64) RiskLevel {
	switch {
	case p < 0.3:
		return RiskLow
	case p < 0.5:
		return RiskMedium
	case p < 0.7:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

// ParseRiskLevel accepts labels such as "High Risk" or "very_high". Labels
// it does not recognize fall back to the probability bucket.
func ParseRiskLevel(label string, p float64) RiskLevel {
	l := strings.ToLower(strings.NewReplacer("_", " ", "-", " ").Replace(label))
	switch {
	case strings.Contains(l, "very high"), strings.Contains(l, "veryhigh"):
		return RiskVeryHigh
	case strings.Contains(l, "high"):
		return RiskHigh
	case strings.Contains(l, "medium"), strings.Contains(l, "moderate"):
		return RiskMedium
	case strings.Contains(l, "low"):
		return RiskLow
	default:
		return RiskFromProbability(p)
	}
}

// PredictionResult is the survey-level prediction returned at submission.
type PredictionResult struct {
	DropoffProbability float64   `json:"dropoffProbability"`
	RiskLevel          RiskLevel `json:"riskLevel"`
	Confidence         float64   `json:"confidence"`
	Recommendations    []string  `json:"recommendations"`
	UserSegment        string    `json:"userSegment,omitempty"`
	ModelType          string    `json:"modelType,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}
