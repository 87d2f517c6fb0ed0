// internal/workers/roi/build-roi-summary/handler_test.go
package buildroisummary

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	commonerrors "roi-workers/internal/common/errors"
	"roi-workers/internal/common/logger"
	"roi-workers/internal/estimator"
	"roi-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultInput() models.EstimatorInput {
	return models.EstimatorInput{
		InvestmentAmount:   2500000,
		CompanySize:        models.CompanySizeLarge,
		Industry:           models.IndustryTechnology,
		TimelinePreference: models.TimelineModerate,
	}
}

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	talented := defaultInput()
	talented.HasInternalTalent = true
	talentedResult, err := estimator.Compute(talented)
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    *Input
		label    string
		headline string
		net      string
	}{
		{
			name:     "recomputes when the result is missing",
			input:    &Input{NormalizedInput: defaultInput()},
			label:    "Hybrid",
			headline: "Consider hybrid approach with selective service support",
			net:      "-$62,375",
		},
		{
			name:     "uses the supplied result",
			input:    &Input{NormalizedInput: talented, Result: &talentedResult},
			label:    "DIY",
			headline: "DIY approach saves $208,93",
			net:      "-$208,93",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := h.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.label, output.RecommendationLabel)
			assert.Contains(t, output.Headline, tt.headline)
			assert.Contains(t, output.Formatted.NetBenefit, tt.net)
		})
	}
}

func TestHandler_Execute_OutputVariables(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{NormalizedInput: defaultInput()})
	require.NoError(t, err)

	raw, err := json.Marshal(output)
	require.NoError(t, err)

	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &vars))
	assert.Contains(t, vars, "comparison")
	assert.Contains(t, vars, "headline")
	assert.Contains(t, vars, "recommendationLabel")
	assert.Contains(t, vars, "formatted")

	comparison := vars["comparison"].(map[string]interface{})
	assert.Equal(t, 56.0, comparison["successRateImprovement"])
	assert.Equal(t, 13.0, comparison["monthsFaster"])
	assert.Equal(t, 625000.0, comparison["serviceInvestment"])
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	h := NewHandler(LoadConfig(), logger.NewTestLogger(t))

	tests := []struct {
		name   string
		mutate func(in *models.EstimatorInput)
		field  string
	}{
		{"unknown timeline", func(in *models.EstimatorInput) { in.TimelinePreference = "whenever" }, "timelinePreference"},
		{"explicit zero investment", func(in *models.EstimatorInput) { in.InvestmentAmount = 0 }, "investmentAmount"},
		{"investment above the ceiling", func(in *models.EstimatorInput) { in.InvestmentAmount = 1e20 }, "investmentAmount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := defaultInput()
			tt.mutate(&in)

			_, err := h.Execute(context.Background(), &Input{NormalizedInput: in})
			var stdErr *commonerrors.StandardError
			require.True(t, errors.As(err, &stdErr))
			assert.Equal(t, commonerrors.ErrCodeInvalidROIInput, stdErr.Code)
			assert.Contains(t, stdErr.Details, tt.field)
		})
	}
}
