// internal/workers/catalog/browse-catalog/models.go
package browsecatalog

import "movie-dropoff/internal/models"

type Input struct {
	SessionID string                `json:"sessionId"`
	Filter    *models.FilterOptions `json:"filter,omitempty"`
}

// Output is the rendered page. Superseded is set when a newer browse job
// for the same session took over; Movies is then empty.
type Output struct {
	Movies             []models.Movie       `json:"movies"`
	Filter             models.FilterOptions `json:"filter"`
	Source             string               `json:"source,omitempty"`
	Count              int                  `json:"count"`
	CatalogUnavailable bool                 `json:"catalogUnavailable"`
	Predicted          bool                 `json:"predicted"`
	Superseded         bool                 `json:"superseded"`
	Warning            string               `json:"warning,omitempty"`
	PredictionError    string               `json:"predictionError,omitempty"`
}
