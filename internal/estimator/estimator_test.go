package estimator

import (
	"errors"
	"math"
	"testing"

	"roi-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func defaultInput() models.EstimatorInput {
	return models.EstimatorInput{
		InvestmentAmount:   2500000,
		CompanySize:        models.CompanySizeLarge,
		Industry:           models.IndustryTechnology,
		HasInternalTalent:  false,
		TimelinePreference: models.TimelineModerate,
	}
}

func allInputs(amount float64) []models.EstimatorInput {
	var inputs []models.EstimatorInput
	for _, size := range models.CompanySizes {
		for _, industry := range models.Industries {
			for _, timeline := range models.TimelinePreferences {
				for _, talent := range []bool{true, false} {
					inputs = append(inputs, models.EstimatorInput{
						InvestmentAmount:   amount,
						CompanySize:        size,
						Industry:           industry,
						HasInternalTalent:  talent,
						TimelinePreference: timeline,
					})
				}
			}
		}
	}
	return inputs
}

// ==========================
// Core Functionality Tests
// ==========================

func TestCompute_DefaultScenario(t *testing.T) {
	result, err := Compute(defaultInput())
	require.NoError(t, err)

	assert.Equal(t, 27, result.SelfDirectedSuccessProbability)
	assert.Equal(t, 83, result.ServiceAssistedSuccessProbability)
	assert.Equal(t, 236250.0, result.SelfDirectedExpectedReturn)
	assert.Equal(t, 798875.0, result.ServiceAssistedExpectedReturn)
	assert.Equal(t, 24, result.SelfDirectedTimeToValue)
	assert.Equal(t, 11, result.ServiceAssistedTimeToValue)
	assert.Equal(t, 625000.0, result.ServicePremium)
	assert.Equal(t, -62375.0, result.NetBenefit)
	assert.Equal(t, models.ApproachHybrid, result.RecommendedApproach)
}

func TestCompute_TimelineScaling(t *testing.T) {
	tests := []struct {
		timeline        models.TimelinePreference
		expectedSelf    int
		expectedService int
	}{
		{models.TimelineAggressive, 29, 13},
		{models.TimelineModerate, 24, 11},
		{models.TimelineConservative, 19, 9},
	}

	for _, tt := range tests {
		t.Run(string(tt.timeline), func(t *testing.T) {
			in := defaultInput()
			in.TimelinePreference = tt.timeline

			result, err := Compute(in)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedSelf, result.SelfDirectedTimeToValue)
			assert.Equal(t, tt.expectedService, result.ServiceAssistedTimeToValue)
		})
	}
}

func TestCompute_InternalTalentNarrowsGap(t *testing.T) {
	without, err := Compute(defaultInput())
	require.NoError(t, err)

	in := defaultInput()
	in.HasInternalTalent = true
	with, err := Compute(in)
	require.NoError(t, err)

	assert.Greater(t, with.SelfDirectedSuccessProbability, without.SelfDirectedSuccessProbability)
	assert.Less(t,
		with.ServiceAssistedSuccessProbability-with.SelfDirectedSuccessProbability,
		without.ServiceAssistedSuccessProbability-without.SelfDirectedSuccessProbability,
	)
	assert.Equal(t, 52, with.SelfDirectedSuccessProbability)
	assert.Equal(t, models.ApproachSelfDirected, with.RecommendedApproach)
	assert.InDelta(t, -208937.5, with.NetBenefit, 1)
}

func TestCompute_SelfDirectedClampsAtFloor(t *testing.T) {
	result, err := Compute(models.EstimatorInput{
		InvestmentAmount:   2500000,
		CompanySize:        models.CompanySizeStartup,
		Industry:           models.IndustryHealthcare,
		HasInternalTalent:  false,
		TimelinePreference: models.TimelineModerate,
	})
	require.NoError(t, err)

	// 22 - 10 - 15 + 3.5 = 0.5 before clamping
	assert.Equal(t, 5, result.SelfDirectedSuccessProbability)
	// 78 - 5 - 4.5 + 1.4 = 69.9
	assert.Equal(t, 70, result.ServiceAssistedSuccessProbability)
}

func TestCompute_ProbabilityBounds(t *testing.T) {
	for _, in := range allInputs(2500000) {
		result, err := Compute(in)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, result.SelfDirectedSuccessProbability, 5)
		assert.LessOrEqual(t, result.SelfDirectedSuccessProbability, 95)
		assert.GreaterOrEqual(t, result.ServiceAssistedSuccessProbability, 60)
		assert.LessOrEqual(t, result.ServiceAssistedSuccessProbability, 95)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	for _, in := range allInputs(1750000) {
		first, err := Compute(in)
		require.NoError(t, err)
		second, err := Compute(in)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestCompute_RecommendationMatchesThresholds(t *testing.T) {
	for _, in := range allInputs(2500000) {
		result, err := Compute(in)
		require.NoError(t, err)

		switch result.RecommendedApproach {
		case models.ApproachServiceAssisted:
			assert.Greater(t, result.NetBenefit, in.InvestmentAmount*0.10-1)
		case models.ApproachSelfDirected:
			assert.Less(t, result.NetBenefit, -in.InvestmentAmount*0.05+1)
		case models.ApproachHybrid:
			assert.GreaterOrEqual(t, result.NetBenefit, -in.InvestmentAmount*0.05-1)
			assert.LessOrEqual(t, result.NetBenefit, in.InvestmentAmount*0.10+1)
		default:
			t.Fatalf("unexpected approach %q", result.RecommendedApproach)
		}
	}
}

func TestCompute_LinearInInvestment(t *testing.T) {
	for _, in := range allInputs(1000000) {
		base, err := Compute(in)
		require.NoError(t, err)

		doubled := in
		doubled.InvestmentAmount *= 2
		scaled, err := Compute(doubled)
		require.NoError(t, err)

		assert.Equal(t, base.SelfDirectedSuccessProbability, scaled.SelfDirectedSuccessProbability)
		assert.Equal(t, base.ServiceAssistedSuccessProbability, scaled.ServiceAssistedSuccessProbability)
		assert.InDelta(t, 2*base.ServicePremium, scaled.ServicePremium, 2)
		assert.InDelta(t, 2*base.SelfDirectedExpectedReturn, scaled.SelfDirectedExpectedReturn, 2)
		assert.InDelta(t, 2*base.ServiceAssistedExpectedReturn, scaled.ServiceAssistedExpectedReturn, 2)
		assert.Equal(t, base.RecommendedApproach, scaled.RecommendedApproach)
	}
}

// ==========================
// Recommendation Tests
// ==========================

func TestRecommend(t *testing.T) {
	tests := []struct {
		name       string
		netBenefit float64
		expected   models.Approach
	}{
		{"well above service threshold", 500000, models.ApproachServiceAssisted},
		{"just above service threshold", 250001, models.ApproachServiceAssisted},
		{"exactly at service threshold", 250000, models.ApproachHybrid},
		{"zero", 0, models.ApproachHybrid},
		{"exactly at self-directed threshold", -125000, models.ApproachHybrid},
		{"just below self-directed threshold", -125001, models.ApproachSelfDirected},
		{"far below", -1e12, models.ApproachSelfDirected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Recommend(tt.netBenefit, 2500000))
		})
	}
}

func TestDeltas(t *testing.T) {
	result, err := Compute(defaultInput())
	require.NoError(t, err)

	deltas := Deltas(result)
	assert.Equal(t, 56, deltas.SuccessRateImprovement)
	assert.Equal(t, 13, deltas.MonthsFaster)
	assert.Equal(t, 625000.0, deltas.ServiceInvestment)
}

// ==========================
// Validation Tests
// ==========================

func TestCompute_InvalidInput(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(in *models.EstimatorInput)
		expectedField string
	}{
		{"zero investment", func(in *models.EstimatorInput) { in.InvestmentAmount = 0 }, "investmentAmount"},
		{"negative investment", func(in *models.EstimatorInput) { in.InvestmentAmount = -1 }, "investmentAmount"},
		{"NaN investment", func(in *models.EstimatorInput) { in.InvestmentAmount = math.NaN() }, "investmentAmount"},
		{"infinite investment", func(in *models.EstimatorInput) { in.InvestmentAmount = math.Inf(1) }, "investmentAmount"},
		{"investment above the ceiling", func(in *models.EstimatorInput) { in.InvestmentAmount = 1e20 }, "investmentAmount"},
		{"unknown company size", func(in *models.EstimatorInput) { in.CompanySize = "huge" }, "companySize"},
		{"empty industry", func(in *models.EstimatorInput) { in.Industry = "" }, "industry"},
		{"unknown timeline", func(in *models.EstimatorInput) { in.TimelinePreference = "asap" }, "timelinePreference"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := defaultInput()
			tt.mutate(&in)

			result, err := Compute(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			assert.Equal(t, models.EstimatorResult{}, result)

			var inputErr *InvalidInputError
			require.True(t, errors.As(err, &inputErr))
			require.Len(t, inputErr.Violations, 1)
			assert.Equal(t, tt.expectedField, inputErr.Violations[0].Field)
		})
	}
}

func TestValidate_InvestmentCeiling(t *testing.T) {
	in := defaultInput()

	in.InvestmentAmount = models.MaxInvestmentAmount
	require.NoError(t, Validate(in))

	result, err := Compute(in)
	require.NoError(t, err)
	assert.NotContains(t, FormatUSD(result.ServiceAssistedExpectedReturn), "-")

	in.InvestmentAmount = math.Nextafter(models.MaxInvestmentAmount, math.Inf(1))
	err = Validate(in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not exceed 1000000000000000")
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	err := Validate(models.EstimatorInput{InvestmentAmount: -5})

	var inputErr *InvalidInputError
	require.True(t, errors.As(err, &inputErr))
	assert.Len(t, inputErr.Violations, 4)
	assert.Contains(t, err.Error(), "INVALID_ROI_INPUT")
}

func TestRound_TiesTowardPositiveInfinity(t *testing.T) {
	assert.Equal(t, 3.0, round(2.5))
	assert.Equal(t, -2.0, round(-2.5))
	assert.Equal(t, 0.0, round(-0.5))
	assert.Equal(t, 13.0, round(13.2))
	assert.Equal(t, 29.0, round(28.799999999999997))
}
