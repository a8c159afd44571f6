package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Codes and matching
// ==========================

func TestStandardError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("submit: %w", NewAlreadySubmittedError("s1"))

	assert.ErrorIs(t, err, NewAlreadySubmittedError("other"))
	assert.NotErrorIs(t, err, NewInvalidInputError("x"))
	assert.True(t, HasCode(err, ErrCodeAlreadySubmitted))

	code, ok := CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeAlreadySubmitted, code)

	_, ok = CodeOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestTransportFailure_KeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewTransportFailureError("prediction", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, err.Retryable)
	assert.Contains(t, err.Error(), "TRANSPORT_FAILURE")
}

func TestStatusFailure_Retryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{400, false},
		{404, false},
		{422, false},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := NewStatusFailureError("tmdb", tt.status)
			assert.Equal(t, tt.want, err.Retryable)
			assert.Equal(t, tt.status, err.StatusCode)
		})
	}
}

func TestNormalize(t *testing.T) {
	std := NewSessionStoreFailedError("get", errors.New("timeout"))
	assert.Same(t, std, Normalize(fmt.Errorf("wrapped: %w", std)))

	plain := errors.New("boom")
	n := Normalize(plain)
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), n.Code)
	assert.False(t, n.Retryable)
	assert.ErrorIs(t, n, plain)
}

// ==========================
// BPMN conversion
// ==========================

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{"store failure retried", NewSessionStoreFailedError("set", errors.New("down")), "SESSION_STORE_FAILED", 3},
		{"transport retried", NewTransportFailureError("prediction", errors.New("eof")), "PREDICTION_SERVICE_UNREACHABLE", 2},
		{"client status not retried", NewStatusFailureError("prediction", 404), "PREDICTION_SERVICE_ERROR", 0},
		{"incomplete survey", NewValidationFailureError("missing: age"), "SURVEY_INCOMPLETE", 0},
		{"already submitted", NewAlreadySubmittedError("s"), "SURVEY_ALREADY_SUBMITTED", 0},
		{"unmapped code passes through", Normalize(errors.New("x")), "INTERNAL_ERROR", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, b.Code)
			assert.Equal(t, tt.wantRetries, b.Retries)
			assert.Equal(t, string(tt.err.Code), b.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "UPSTREAM", GetErrorCategory(ErrCodeSchemaFailure))
	assert.Equal(t, "CATALOG", GetErrorCategory(ErrCodeCatalogUnavailable))
	assert.Equal(t, "SESSION", GetErrorCategory(ErrCodeAlreadySubmitted))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidFeatureVector))
	assert.Equal(t, "OTHER", GetErrorCategory("INTERNAL_ERROR"))
	assert.True(t, IsRetryableErrorCode(ErrCodeCatalogUnavailable))
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidInput))
}
