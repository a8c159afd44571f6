// internal/workers/survey/submit-survey/models.go
package submitsurvey

import "movie-dropoff/internal/models"

// Input carries the answers keyed by feature name. Values may be booleans
// or numbers, as a browser form would post them.
type Input struct {
	SessionID string                 `json:"sessionId" validate:"omitempty,max=128"`
	Responses map[string]interface{} `json:"responses" validate:"required,min=1"`
}

type Output struct {
	SessionID       string                   `json:"sessionId"`
	Submitted       bool                     `json:"submitted"`
	FeatureVector   models.FeatureVector     `json:"featureVector"`
	Prediction      *models.PredictionResult `json:"prediction,omitempty"`
	PredictionError string                   `json:"predictionError,omitempty"`
}
