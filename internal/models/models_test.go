package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureSchema_Shape(t *testing.T) {
	schema := FeatureSchema()
	require.Len(t, schema, FeatureCount)

	seen := map[FieldKey]bool{}
	for _, spec := range schema {
		assert.False(t, seen[spec.Key], "duplicate key %s", spec.Key)
		seen[spec.Key] = true
		if !spec.ClockDefault {
			assert.GreaterOrEqual(t, spec.Default, spec.Min, spec.Key)
			assert.LessOrEqual(t, spec.Default, spec.Max, spec.Key)
		}
	}

	assert.Equal(t, FieldBoringPlot, schema[0].Key)
	assert.Equal(t, FieldEnjoyRomance, schema[FeatureCount-1].Key)

	spec, ok := LookupField(FieldGenreCompletionRatio)
	require.True(t, ok)
	assert.Equal(t, 0.6, spec.Default)
	assert.Equal(t, FieldTypeDecimal, spec.Type)

	_, ok = LookupField("favorite_snack")
	assert.False(t, ok)
}

func TestFeatureVector_JSONRoundTripKeepsAllKeys(t *testing.T) {
	var v FeatureVector
	v.Set(FieldBoringPlot, 1)
	v.Set(FieldGenreCompletionRatio, 0.6)
	v.Set("favorite_snack", 42)

	data, err := json.Marshal(v)
	require.NoError(t, err)

	var asMap map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &asMap))
	assert.Len(t, asMap, FeatureCount)
	assert.Equal(t, float64(1), asMap["boring_plot"])
	assert.Equal(t, 0.6, asMap["genre_completion_ratio"])
	assert.NotContains(t, asMap, "favorite_snack")

	var back FeatureVector
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, v, back)
}

func TestFeatureVector_UnmarshalRejectsMissingKeys(t *testing.T) {
	var v FeatureVector
	err := json.Unmarshal([]byte(`{"boring_plot":1}`), &v)

	var missing *MissingKeysError
	require.ErrorAs(t, err, &missing)
	assert.Len(t, missing.Keys, FeatureCount-1)
}

func TestParseRawAnswers(t *testing.T) {
	raw := ParseRawAnswers(map[string]interface{}{
		"boring_plot":            true,
		"total_stopping_reasons": float64(3),
		"patience_score":         0.7,
		"scrolls_phone":          nil,
		"comment":                "long",
		"watch_frequency_score":  json.Number("4"),
		"attention_span_score":   math.NaN(),
	})

	assert.Equal(t, BoolAnswer(true), raw[FieldBoringPlot])
	assert.Equal(t, CountAnswer(3), raw[FieldTotalStoppingReasons])
	assert.Equal(t, FractionAnswer(0.7), raw[FieldPatienceScore])
	assert.Equal(t, CountAnswer(4), raw[FieldWatchFrequencyScore])
	assert.NotContains(t, raw, FieldScrollsPhone)
	assert.NotContains(t, raw, FieldKey("comment"))
	assert.NotContains(t, raw, FieldAttentionSpanScore)
}

func TestAnswer_Numeric(t *testing.T) {
	assert.Equal(t, 1.0, BoolAnswer(true).Numeric())
	assert.Equal(t, 0.0, BoolAnswer(false).Numeric())
	assert.Equal(t, 5.0, CountAnswer(5).Numeric())
	assert.Equal(t, 0.3, FractionAnswer(0.3).Numeric())
	assert.False(t, Answer{}.Valid())
	assert.False(t, FractionAnswer(math.Inf(1)).Valid())
}

func TestFieldSpec_Admits(t *testing.T) {
	cluster, ok := LookupField(FieldBehaviorCluster)
	require.True(t, ok)
	assert.True(t, cluster.Admits(CountAnswer(10)))
	assert.False(t, cluster.Admits(CountAnswer(11)))
	assert.False(t, cluster.Admits(FractionAnswer(1.5)))
	assert.False(t, cluster.Admits(Answer{}))

	ratio, _ := LookupField(FieldGenreCompletionRatio)
	assert.True(t, ratio.Admits(FractionAnswer(0.25)))
	assert.False(t, ratio.Admits(FractionAnswer(1.25)))

	plot, _ := LookupField(FieldBoringPlot)
	assert.True(t, plot.Admits(BoolAnswer(true)))
	assert.False(t, plot.Admits(CountAnswer(-1)))
}

func TestMovie_FillPlaceholders(t *testing.T) {
	m := Movie{ID: "1", Title: "Arrival"}
	m.FillPlaceholders()

	assert.Equal(t, PlaceholderDirector, m.Director)
	assert.Equal(t, PlaceholderContentRating, m.ContentRating)
	assert.Equal(t, PlaceholderStarCast, m.StarCast)
	assert.Equal(t, PlaceholderRuntime, m.Runtime)
	assert.Equal(t, []string{"Drama"}, m.Genres)
	assert.Equal(t, "Drama", m.MainGenre)
}

func TestMovie_HasGenre(t *testing.T) {
	m := Movie{Genres: []string{"Science Fiction", "Action"}}
	assert.True(t, m.HasGenre("fiction"))
	assert.True(t, m.HasGenre("ACTION"))
	assert.False(t, m.HasGenre("Romance"))
}

func TestFilterOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		filter  FilterOptions
		wantErr bool
	}{
		{"defaults", DefaultFilter(), false},
		{"prediction sort", FilterOptions{SortBy: "prediction", SortOrder: "asc"}, false},
		{"unknown sort", FilterOptions{SortBy: "popularity"}, true},
		{"unknown order", FilterOptions{SortOrder: "down"}, true},
		{"rating out of range", FilterOptions{MinRating: 11}, true},
		{"inverted years", FilterOptions{YearFrom: 2010, YearTo: 2000}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseRiskLevel(t *testing.T) {
	tests := []struct {
		label string
		p     float64
		want  RiskLevel
	}{
		{"High Risk", 0.1, RiskHigh},
		{"Medium Risk", 0.9, RiskMedium},
		{"Low Risk", 0.9, RiskLow},
		{"very_high", 0.1, RiskVeryHigh},
		{"", 0.2, RiskLow},
		{"", 0.45, RiskMedium},
		{"", 0.6, RiskHigh},
		{"??", 0.85, RiskVeryHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseRiskLevel(tt.label, tt.p), "%q %.2f", tt.label, tt.p)
	}
}
