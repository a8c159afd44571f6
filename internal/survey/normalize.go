package survey

import (
	"time"

	"movie-dropoff/internal/models"
)

// Normalizer turns raw answers into a complete FeatureVector. The clock only
// feeds the is_weekend default.
type Normalizer struct {
	now func() time.Time
}

func NewNormalizer(now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now}
}

var defaultNormalizer = NewNormalizer(nil)

// Normalize uses the wall clock.
func Normalize(raw models.RawAnswers) models.FeatureVector {
	return defaultNormalizer.Normalize(raw)
}

// Normalize never fails. Unknown keys in raw are dropped, and a non-finite
// answer counts as unanswered.
func (n *Normalizer) Normalize(raw models.RawAnswers) models.FeatureVector {
	var v models.FeatureVector
	for _, spec := range models.FeatureSchema() {
		if a, ok := raw[spec.Key]; ok && a.Valid() {
			v.Set(spec.Key, a.Numeric())
			continue
		}
		v.Set(spec.Key, n.defaultFor(spec))
	}
	return v
}

func (n *Normalizer) defaultFor(spec models.FieldSpec) float64 {
	if !spec.ClockDefault {
		return spec.Default
	}
	switch n.now().Weekday() {
	case time.Saturday, time.Sunday:
		return 1
	default:
		return 0
	}
}
