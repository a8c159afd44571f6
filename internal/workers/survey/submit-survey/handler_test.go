// internal/workers/survey/submit-survey/handler_test.go
package submitsurvey

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "movie-dropoff/internal/common/errors"
	"movie-dropoff/internal/common/logger"
	"movie-dropoff/internal/common/validation"
	"movie-dropoff/internal/models"
	"movie-dropoff/internal/session"
	"movie-dropoff/internal/survey"
)

// ==========================
// Test Helper Functions
// ==========================

type stubPredictor struct {
	result *models.PredictionResult
	err    error
	calls  int
}

func (s *stubPredictor) Predict(_ context.Context, _ models.FeatureVector) (*models.PredictionResult, error) {
	s.calls++
	return s.result, s.err
}

// fullResponses answers every default question the way a browser form
// would post it: booleans, whole numbers and decimals.
func fullResponses() map[string]interface{} {
	out := map[string]interface{}{}
	for _, q := range survey.DefaultQuestions() {
		switch q.Kind {
		case survey.KindBoolean:
			out[string(q.Field)] = true
		case survey.KindIntegerChoice:
			out[string(q.Field)] = q.Options[1]
		default:
			out[string(q.Field)] = 0.5
		}
	}
	return out
}

func newTestHandler(t *testing.T, store session.Store, p Predictor) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		CustomConfig: DefaultConfig(),
		Store:        store,
		Predictor:    p,
		Now:          func() time.Time { return time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC) },
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

// ==========================
// Execute
// ==========================

func TestExecute_Success(t *testing.T) {
	store := session.NewMemoryStore()
	p := &stubPredictor{result: &models.PredictionResult{DropoffProbability: 0.42, RiskLevel: models.RiskMedium}}
	h := newTestHandler(t, store, p)

	out, err := h.Execute(context.Background(), &Input{SessionID: "sess-1", Responses: fullResponses()})
	require.NoError(t, err)

	assert.True(t, out.Submitted)
	assert.Equal(t, "sess-1", out.SessionID)
	assert.Equal(t, 1, p.calls)
	require.NotNil(t, out.Prediction)
	assert.Equal(t, models.RiskMedium, out.Prediction.RiskLevel)
	assert.Empty(t, out.PredictionError)

	assert.Equal(t, 0.5, out.FeatureVector.Value(models.FieldPatienceScore))
	assert.Equal(t, 1.0, out.FeatureVector.Value(models.FieldIsWeekend))

	stored, err := store.LoadVector(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, out.FeatureVector, stored)
}

func TestExecute_GeneratesSessionID(t *testing.T) {
	h := newTestHandler(t, session.NewMemoryStore(), nil)

	out, err := h.Execute(context.Background(), &Input{Responses: fullResponses()})
	require.NoError(t, err)
	assert.NotEmpty(t, out.SessionID)
	assert.Nil(t, out.Prediction)
}

func TestExecute_PredictionFailureStillSubmits(t *testing.T) {
	store := session.NewMemoryStore()
	p := &stubPredictor{err: apperrors.NewStatusFailureError("predict", 503)}
	h := newTestHandler(t, store, p)

	out, err := h.Execute(context.Background(), &Input{SessionID: "sess-2", Responses: fullResponses()})
	require.NoError(t, err)
	assert.True(t, out.Submitted)
	assert.Nil(t, out.Prediction)
	assert.Contains(t, out.PredictionError, "503")

	_, err = store.LoadVector(context.Background(), "sess-2")
	assert.NoError(t, err)
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(map[string]interface{}) map[string]interface{}
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "no responses",
			mutate:   func(map[string]interface{}) map[string]interface{} { return nil },
			wantCode: apperrors.ErrCodeInvalidInput,
		},
		{
			name: "unanswered question",
			mutate: func(r map[string]interface{}) map[string]interface{} {
				delete(r, string(models.FieldPatienceScore))
				return r
			},
			wantCode: apperrors.ErrCodeValidationFailure,
		},
		{
			name: "answer outside options",
			mutate: func(r map[string]interface{}) map[string]interface{} {
				r[string(models.FieldSocialInfluenceScore)] = 42.0
				return r
			},
			wantCode: apperrors.ErrCodeInvalidInput,
		},
		{
			name: "wrong answer kind",
			mutate: func(r map[string]interface{}) map[string]interface{} {
				r[string(models.FieldTotalGenresStopped)] = true
				return r
			},
			wantCode: apperrors.ErrCodeInvalidInput,
		},
		{
			name: "unasked field above its range",
			mutate: func(r map[string]interface{}) map[string]interface{} {
				r[string(models.FieldBehaviorCluster)] = 99.0
				return r
			},
			wantCode: apperrors.ErrCodeInvalidInput,
		},
		{
			name: "unasked integer field with a fraction",
			mutate: func(r map[string]interface{}) map[string]interface{} {
				r[string(models.FieldBehaviorCluster)] = 1.5
				return r
			},
			wantCode: apperrors.ErrCodeInvalidInput,
		},
		{
			name: "unasked decimal field below its range",
			mutate: func(r map[string]interface{}) map[string]interface{} {
				r[string(models.FieldWatchFrequencyScore)] = -0.5
				return r
			},
			wantCode: apperrors.ErrCodeInvalidInput,
		},
		{
			name: "yes/no answered with 2",
			mutate: func(r map[string]interface{}) map[string]interface{} {
				r[string(models.FieldStopHistorical)] = 2.0
				return r
			},
			wantCode: apperrors.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := session.NewMemoryStore()
			h := newTestHandler(t, store, nil)

			_, err := h.Execute(context.Background(), &Input{SessionID: "s", Responses: tt.mutate(fullResponses())})
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.wantCode), "got %v", err)

			_, err = store.LoadVector(context.Background(), "s")
			assert.ErrorIs(t, err, session.ErrNotFound)
		})
	}
}

func TestExecute_UnaskedFieldsInRangeAreKept(t *testing.T) {
	store := session.NewMemoryStore()
	h := newTestHandler(t, store, nil)
	ctx := context.Background()

	responses := fullResponses()
	responses[string(models.FieldBehaviorCluster)] = 4.0
	responses[string(models.FieldWatchFrequencyScore)] = 7.5

	_, err := h.Execute(ctx, &Input{SessionID: "extra", Responses: responses})
	require.NoError(t, err)

	stored, err := store.LoadVector(ctx, "extra")
	require.NoError(t, err)
	assert.Equal(t, 4.0, stored.Value(models.FieldBehaviorCluster))
	assert.Equal(t, 7.5, stored.Value(models.FieldWatchFrequencyScore))
	assert.True(t, validation.ValidateFeatureVector(stored).Valid)
}

func TestExecute_BooleansAsZeroOne(t *testing.T) {
	asBools := newTestHandler(t, session.NewMemoryStore(), nil)
	asInts := newTestHandler(t, session.NewMemoryStore(), nil)
	ctx := context.Background()

	responses := fullResponses()
	numeric := fullResponses()
	for _, q := range survey.DefaultQuestions() {
		if q.Kind == survey.KindBoolean {
			numeric[string(q.Field)] = 1.0
		}
	}
	numeric[string(models.FieldStopHistorical)] = 0.0
	responses[string(models.FieldStopHistorical)] = false

	want, err := asBools.Execute(ctx, &Input{SessionID: "b", Responses: responses})
	require.NoError(t, err)
	got, err := asInts.Execute(ctx, &Input{SessionID: "n", Responses: numeric})
	require.NoError(t, err)

	assert.Equal(t, want.FeatureVector, got.FeatureVector)
	assert.Equal(t, 0.0, got.FeatureVector.Value(models.FieldStopHistorical))
}

func TestExecute_AlreadySubmitted(t *testing.T) {
	store := session.NewMemoryStore()
	h := newTestHandler(t, store, nil)
	ctx := context.Background()

	_, err := h.Execute(ctx, &Input{SessionID: "dup", Responses: fullResponses()})
	require.NoError(t, err)

	_, err = h.Execute(ctx, &Input{SessionID: "dup", Responses: fullResponses()})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAlreadySubmitted))
}

func TestExecute_OutputVariablesShape(t *testing.T) {
	h := newTestHandler(t, session.NewMemoryStore(), nil)

	out, err := h.Execute(context.Background(), &Input{SessionID: "json", Responses: fullResponses()})
	require.NoError(t, err)

	data, err := json.Marshal(out)
	require.NoError(t, err)

	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &vars))
	vector, ok := vars["featureVector"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, vector, models.FeatureCount)
}

func TestNewHandler_RequiresStore(t *testing.T) {
	_, err := NewHandler(HandlerOptions{Logger: logger.NewNoOpLogger()})
	assert.Error(t, err)
}
