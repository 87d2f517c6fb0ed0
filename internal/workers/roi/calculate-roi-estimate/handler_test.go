// internal/workers/roi/calculate-roi-estimate/handler_test.go
package calculateroiestimate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"roi-workers/internal/common/database"
	commonerrors "roi-workers/internal/common/errors"
	"roi-workers/internal/common/logger"
	"roi-workers/internal/estimator"
	"roi-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func setupHandler(t *testing.T) (*Handler, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logger.NewTestLogger(t)
	svc := estimator.NewService(database.NewEstimateStore(rdb), estimator.ServiceConfig{
		CacheTTL:   time.Minute,
		SessionTTL: time.Hour,
	}, log)

	return NewHandler(LoadConfig(), svc, log), mr
}

func normalizedInput() *models.EstimatorInput {
	return &models.EstimatorInput{
		InvestmentAmount:   2500000,
		CompanySize:        models.CompanySizeLarge,
		Industry:           models.IndustryTechnology,
		TimelinePreference: models.TimelineModerate,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_DefaultScenario(t *testing.T) {
	h, _ := setupHandler(t)

	output, err := h.Execute(context.Background(), &Input{NormalizedInput: normalizedInput()})
	require.NoError(t, err)

	assert.NotEmpty(t, output.EstimateID)
	assert.Equal(t, 27, output.Result.SelfDirectedSuccessProbability)
	assert.Equal(t, 83, output.Result.ServiceAssistedSuccessProbability)
	assert.Equal(t, 625000.0, output.Result.ServicePremium)
	assert.Equal(t, -62375.0, output.Result.NetBenefit)
	assert.Equal(t, models.ApproachHybrid, output.Result.RecommendedApproach)
	assert.False(t, output.Published)
	assert.False(t, output.CacheHit)
}

func TestHandler_Execute_TopLevelVariables(t *testing.T) {
	h, _ := setupHandler(t)

	var input Input
	require.NoError(t, json.Unmarshal([]byte(`{
		"companySize": "Startup",
		"industry": "healthcare",
		"hasInternalTalent": false,
		"timelinePreference": "conservative"
	}`), &input))
	require.Nil(t, input.NormalizedInput)

	output, err := h.Execute(context.Background(), &input)
	require.NoError(t, err, "missing investment takes the default")
	assert.Equal(t, 5, output.Result.SelfDirectedSuccessProbability)
	assert.Equal(t, 70, output.Result.ServiceAssistedSuccessProbability)
	assert.Equal(t, 625000.0, output.Result.ServicePremium)
}

func TestHandler_Execute_TopLevelInvestment(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantCode commonerrors.ErrorCode
	}{
		{
			name:    "null investment takes the default",
			payload: `{"investmentAmount": null, "companySize": "large", "industry": "technology", "timelinePreference": "moderate"}`,
		},
		{
			name:     "explicit zero is rejected",
			payload:  `{"investmentAmount": 0, "companySize": "large", "industry": "technology", "timelinePreference": "moderate"}`,
			wantCode: commonerrors.ErrCodeInvalidROIInput,
		},
		{
			name:     "amount above the ceiling is rejected",
			payload:  `{"investmentAmount": 1e20, "companySize": "large", "industry": "technology", "timelinePreference": "moderate"}`,
			wantCode: commonerrors.ErrCodeInvalidROIInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupHandler(t)

			var input Input
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &input))

			output, err := h.Execute(context.Background(), &input)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, 625000.0, output.Result.ServicePremium)
				assert.Equal(t, -62375.0, output.Result.NetBenefit)
				return
			}

			require.Error(t, err)
			var stdErr *commonerrors.StandardError
			require.True(t, errors.As(err, &stdErr))
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Contains(t, stdErr.Details, "investmentAmount")
		})
	}
}

func TestHandler_Execute_PublishesSessionRevisions(t *testing.T) {
	h, _ := setupHandler(t)
	ctx := context.Background()

	first, err := h.Execute(ctx, &Input{NormalizedInput: normalizedInput(), SessionID: "ui-7", Revision: 5})
	require.NoError(t, err)
	assert.True(t, first.Published)
	assert.False(t, first.CacheHit)

	stale, err := h.Execute(ctx, &Input{NormalizedInput: normalizedInput(), SessionID: "ui-7", Revision: 4})
	require.NoError(t, err)
	assert.False(t, stale.Published)
	assert.True(t, stale.Stale)
	assert.True(t, stale.CacheHit)

	latest, err := h.service.Latest(ctx, "ui-7")
	require.NoError(t, err)
	assert.Equal(t, int64(5), latest.Revision)
}

// ==========================
// Failure Path Tests
// ==========================

func TestHandler_Execute_InvalidInput(t *testing.T) {
	h, _ := setupHandler(t)

	in := normalizedInput()
	in.Industry = "aerospace"

	_, err := h.Execute(context.Background(), &Input{NormalizedInput: in})
	require.Error(t, err)

	var stdErr *commonerrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, commonerrors.ErrCodeInvalidROIInput, stdErr.Code)
	assert.Contains(t, stdErr.Details, "industry")
}

func TestHandler_Execute_SessionStoreDown(t *testing.T) {
	h, mr := setupHandler(t)
	mr.Close()

	_, err := h.Execute(context.Background(), &Input{NormalizedInput: normalizedInput(), SessionID: "ui-7", Revision: 1})
	require.Error(t, err)

	var stdErr *commonerrors.StandardError
	require.True(t, errors.As(err, &stdErr))
	assert.Equal(t, commonerrors.ErrCodeSessionStoreFailed, stdErr.Code)
	assert.Equal(t, 3, commonerrors.ConvertToBPMNError(stdErr).Retries)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code commonerrors.ErrorCode
	}{
		{"standard errors pass through", commonerrors.NewTimeoutError("redis", errors.New("slow")), commonerrors.ErrCodeTimeout},
		{"invalid input", &estimator.InvalidInputError{Violations: []estimator.Violation{{Field: "industry", Message: "unknown"}}}, commonerrors.ErrCodeInvalidROIInput},
		{"anything else", errors.New("boom"), commonerrors.ErrCodeEstimateFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdErr *commonerrors.StandardError
			require.True(t, errors.As(classify(tt.err), &stdErr))
			assert.Equal(t, tt.code, stdErr.Code)
		})
	}
}
