package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name            string
		err             *StandardError
		expectedCode    string
		expectedRetries int
	}{
		{
			name:            "invalid input is thrown without retries",
			err:             NewInvalidROIInputError("companySize: unknown value"),
			expectedCode:    "INVALID_ROI_INPUT",
			expectedRetries: 0,
		},
		{
			name:            "session store failure is retried",
			err:             NewSessionStoreFailedError("publish", fmt.Errorf("connection refused")),
			expectedCode:    "SESSION_STORE_FAILED",
			expectedRetries: 3,
		},
		{
			name:            "timeout is retried twice",
			err:             NewTimeoutError("redis", fmt.Errorf("deadline exceeded")),
			expectedCode:    "TIMEOUT_ERROR",
			expectedRetries: 2,
		},
		{
			name:            "unmapped code falls back to itself",
			err:             NewInternalError(fmt.Errorf("boom")),
			expectedCode:    "INTERNAL_ERROR",
			expectedRetries: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.expectedCode, bpmnErr.Code)
			assert.Equal(t, tt.expectedRetries, bpmnErr.Retries)
			assert.Equal(t, string(tt.err.Code), bpmnErr.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestToErrorVariables_IncludesMetadata(t *testing.T) {
	stdErr := NewStaleRevisionError("session-1", 3, 5).WithMetadata("sessionId", "session-1")

	vars := ConvertToBPMNError(stdErr).ToErrorVariables()
	assert.Equal(t, "STALE_REVISION", vars["errorCode"])
	assert.Equal(t, "session-1", vars["sessionId"])
	assert.Equal(t, false, vars["retryable"])
	assert.Contains(t, vars["errorDetails"], "latest: 5")
}

func TestNormalize(t *testing.T) {
	original := NewInvalidROIInputError("bad")
	wrapped := fmt.Errorf("validate: %w", original)

	assert.Same(t, original, Normalize(wrapped))

	internal := Normalize(stderrors.New("unexpected"))
	require.NotNil(t, internal)
	assert.Equal(t, ErrCodeInternal, internal.Code)
	assert.Equal(t, "unexpected", internal.Details)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidROIInput))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeSchemaValidationFailed))
	assert.Equal(t, "SESSION", GetErrorCategory(ErrCodeSessionStoreFailed))
	assert.Equal(t, "SESSION", GetErrorCategory(ErrCodeStaleRevision))
	assert.Equal(t, "ESTIMATOR", GetErrorCategory(ErrCodeEstimateFailed))
	assert.Equal(t, "INFRASTRUCTURE", GetErrorCategory(ErrCodeTimeout))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestIsRetryableErrorCode(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeSessionStoreFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidROIInput))
}
