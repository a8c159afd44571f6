package models

import "math"

// FieldKey names one feature of the prediction model's input.
type FieldKey string

const (
	FieldBoringPlot                 FieldKey = "boring_plot"
	FieldTotalStoppingReasons       FieldKey = "total_stopping_reasons"
	FieldStopHistorical             FieldKey = "stop_historical"
	FieldEnjoyAction                FieldKey = "enjoy_action"
	FieldTotalGenresStopped         FieldKey = "total_genres_stopped"
	FieldGenreCompletionRatio       FieldKey = "genre_completion_ratio"
	FieldPatienceScore              FieldKey = "patience_score"
	FieldAttentionSpanScore         FieldKey = "attention_span_score"
	FieldTotalMultitaskingBehaviors FieldKey = "total_multitasking_behaviors"
	FieldSocialInfluenceScore       FieldKey = "social_influence_score"
	FieldBehaviorCluster            FieldKey = "behavior_cluster"
	FieldIsWeekend                  FieldKey = "is_weekend"
	FieldWatchFrequencyScore        FieldKey = "watch_frequency_score"
	FieldFeelingBoredPause          FieldKey = "feeling_bored_pause"
	FieldDiscoversViaReviews        FieldKey = "discovers_via_reviews"
	FieldChoosesEntertainment       FieldKey = "chooses_entertainment"
	FieldWatchesStreamingHome       FieldKey = "watches_streaming_home"
	FieldScrollsPhone               FieldKey = "scrolls_phone"
	FieldDoesChores                 FieldKey = "does_chores"
	FieldDiscoversViaTrailers       FieldKey = "discovers_via_trailers"
	FieldDiscoversViaAwards         FieldKey = "discovers_via_awards"
	FieldPauseLostFocus             FieldKey = "pause_lost_focus"
	FieldStopDistractions           FieldKey = "stop_distractions"
	FieldStopTechnicalIssues        FieldKey = "stop_technical_issues"
	FieldChatsWhileWatching         FieldKey = "chats_while_watching"
	FieldPauseToDiscuss             FieldKey = "pause_to_discuss"
	FieldFocusesOnlyOnMovie         FieldKey = "focuses_only_on_movie"
	FieldStopRomance                FieldKey = "stop_romance"
	FieldStopAction                 FieldKey = "stop_action"
	FieldEnjoyRomance               FieldKey = "enjoy_romance"
)

type FieldType string

const (
	FieldTypeBinary  FieldType = "binary"
	FieldTypeInteger FieldType = "integer"
	FieldTypeDecimal FieldType = "decimal"
)

// FieldSpec describes one schema entry. Min and Max bound the values the
// prediction service accepts.
type FieldSpec struct {
	Key     FieldKey
	Type    FieldType
	Default float64
	Min     float64
	Max     float64
	// ClockDefault marks fields whose default is derived from the clock
	// instead of Default.
	ClockDefault bool
}

// Admits reports whether a fits the field: inside [Min, Max], and a whole
// number unless the field is decimal.
func (s FieldSpec) Admits(a Answer) bool {
	if !a.Valid() {
		return false
	}
	n := a.Numeric()
	if n < s.Min || n > s.Max {
		return false
	}
	return s.Type == FieldTypeDecimal || n == math.Trunc(n)
}

func binary(key FieldKey, def float64) FieldSpec {
	return FieldSpec{Key: key, Type: FieldTypeBinary, Default: def, Min: 0, Max: 1}
}

func integer(key FieldKey, def, min, max float64) FieldSpec {
	return FieldSpec{Key: key, Type: FieldTypeInteger, Default: def, Min: min, Max: max}
}

func decimal(key FieldKey, def, min, max float64) FieldSpec {
	return FieldSpec{Key: key, Type: FieldTypeDecimal, Default: def, Min: min, Max: max}
}

var featureSchema = [FeatureCount]FieldSpec{
	binary(FieldBoringPlot, 0),
	integer(FieldTotalStoppingReasons, 3, 0, 20),
	binary(FieldStopHistorical, 0),
	binary(FieldEnjoyAction, 1),
	integer(FieldTotalGenresStopped, 2, 0, 20),
	decimal(FieldGenreCompletionRatio, 0.6, 0, 1),
	decimal(FieldPatienceScore, 0.5, 0, 1),
	decimal(FieldAttentionSpanScore, 0.5, 0, 1),
	integer(FieldTotalMultitaskingBehaviors, 2, 0, 20),
	integer(FieldSocialInfluenceScore, 3, 0, 10),
	integer(FieldBehaviorCluster, 1, 0, 10),
	{Key: FieldIsWeekend, Type: FieldTypeBinary, Min: 0, Max: 1, ClockDefault: true},
	decimal(FieldWatchFrequencyScore, 3.0, 0, 10),
	binary(FieldFeelingBoredPause, 0),
	binary(FieldDiscoversViaReviews, 0),
	binary(FieldChoosesEntertainment, 1),
	binary(FieldWatchesStreamingHome, 1),
	binary(FieldScrollsPhone, 0),
	binary(FieldDoesChores, 0),
	binary(FieldDiscoversViaTrailers, 0),
	binary(FieldDiscoversViaAwards, 0),
	binary(FieldPauseLostFocus, 0),
	binary(FieldStopDistractions, 0),
	binary(FieldStopTechnicalIssues, 0),
	binary(FieldChatsWhileWatching, 0),
	binary(FieldPauseToDiscuss, 0),
	binary(FieldFocusesOnlyOnMovie, 0),
	binary(FieldStopRomance, 0),
	binary(FieldStopAction, 0),
	binary(FieldEnjoyRomance, 0),
}

// FeatureCount is the number of keys every FeatureVector carries.
const FeatureCount = 30

var schemaIndex = func() map[FieldKey]int {
	idx := make(map[FieldKey]int, FeatureCount)
	for i, spec := range featureSchema {
		idx[spec.Key] = i
	}
	return idx
}()

// FeatureSchema returns the ordered field catalog.
func FeatureSchema() []FieldSpec {
	out := make([]FieldSpec, FeatureCount)
	copy(out, featureSchema[:])
	return out
}

func LookupField(key FieldKey) (FieldSpec, bool) {
	i, ok := schemaIndex[key]
	if !ok {
		return FieldSpec{}, false
	}
	return featureSchema[i], true
}

func IsSchemaField(key FieldKey) bool {
	_, ok := schemaIndex[key]
	return ok
}
