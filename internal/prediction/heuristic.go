package prediction

import (
	"math"

	"movie-dropoff/internal/models"
)

const (
	heuristicBaseline = 50.0
	heuristicMin      = 20.0
	heuristicMax      = 90.0
)

// HeuristicCompletion estimates a 0-100 completion likelihood from the
// user's vector alone. Each of the three behavioral scores moves the
// baseline proportionally to its distance from 0.5.
func HeuristicCompletion(v models.FeatureVector) int {
	score := heuristicBaseline +
		(v.Value(models.FieldGenreCompletionRatio)-0.5)*40 +
		(v.Value(models.FieldPatienceScore)-0.5)*30 +
		(v.Value(models.FieldAttentionSpanScore)-0.5)*30

	score = math.Max(heuristicMin, math.Min(heuristicMax, score))
	return int(math.Round(score))
}

// HeuristicPrediction pairs the heuristic completion with its complement so
// the two always sum to 100.
func HeuristicPrediction(v models.FeatureVector) (completion, dropoff int) {
	completion = HeuristicCompletion(v)
	return completion, 100 - completion
}
