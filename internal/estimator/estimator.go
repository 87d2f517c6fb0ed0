// Package estimator projects self-directed vs service-assisted outcomes for an
// AI implementation budget and recommends an approach.
package estimator

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"roi-workers/internal/models"
)

var ErrInvalidInput = errors.New("INVALID_ROI_INPUT")

const (
	selfDirectedBaseRate    = 22.0
	serviceAssistedBaseRate = 78.0

	selfDirectedMinRate    = 5.0
	selfDirectedMaxRate    = 95.0
	serviceAssistedMinRate = 60.0
	serviceAssistedMaxRate = 95.0

	baseReturnRatio     = 0.35
	serviceUplift       = 1.1
	servicePremiumRatio = 0.25

	selfDirectedMonths    = 24.0
	serviceAssistedMonths = 11.0

	serviceThresholdRatio = 0.10
	selfThresholdRatio    = 0.05
)

// Violation describes one rejected input field.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InvalidInputError lists every field that failed validation. It matches
// ErrInvalidInput with errors.Is.
type InvalidInputError struct {
	Violations []Violation
}

func (e *InvalidInputError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Message
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(parts, "; "))
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Validate checks the budget and every enumerated field.
func Validate(in models.EstimatorInput) error {
	var violations []Violation

	if math.IsNaN(in.InvestmentAmount) || math.IsInf(in.InvestmentAmount, 0) || in.InvestmentAmount <= 0 {
		violations = append(violations, Violation{
			Field:   "investmentAmount",
			Message: "must be a positive finite amount",
		})
	} else if in.InvestmentAmount > models.MaxInvestmentAmount {
		violations = append(violations, Violation{
			Field:   "investmentAmount",
			Message: fmt.Sprintf("must not exceed %.0f", models.MaxInvestmentAmount),
		})
	}
	if !in.CompanySize.IsValid() {
		violations = append(violations, Violation{
			Field:   "companySize",
			Message: fmt.Sprintf("unknown value %q", in.CompanySize),
		})
	}
	if !in.Industry.IsValid() {
		violations = append(violations, Violation{
			Field:   "industry",
			Message: fmt.Sprintf("unknown value %q", in.Industry),
		})
	}
	if !in.TimelinePreference.IsValid() {
		violations = append(violations, Violation{
			Field:   "timelinePreference",
			Message: fmt.Sprintf("unknown value %q", in.TimelinePreference),
		})
	}

	if len(violations) > 0 {
		return &InvalidInputError{Violations: violations}
	}
	return nil
}

// Compute is a pure function of its input: identical inputs always yield
// identical results.
func Compute(in models.EstimatorInput) (models.EstimatorResult, error) {
	if err := Validate(in); err != nil {
		return models.EstimatorResult{}, err
	}

	companyMultiplier, _ := in.CompanySize.Multiplier()
	industryBonus, _ := in.Industry.SuccessBonus()
	talentBonus := models.TalentBonus(in.HasInternalTalent)
	timelineMultiplier, _ := in.TimelinePreference.Multiplier()

	// Service support dampens industry and talent risk, hence the smaller weights.
	selfProb := clamp(
		selfDirectedBaseRate+industryBonus*100+talentBonus*100+companyMultiplier*5,
		selfDirectedMinRate, selfDirectedMaxRate,
	)
	serviceProb := clamp(
		serviceAssistedBaseRate+industryBonus*50+talentBonus*30+companyMultiplier*2,
		serviceAssistedMinRate, serviceAssistedMaxRate,
	)

	baseReturn := in.InvestmentAmount * baseReturnRatio
	selfReturn := baseReturn * (selfProb / 100) * companyMultiplier
	serviceReturn := baseReturn * (serviceProb / 100) * companyMultiplier * serviceUplift

	premium := in.InvestmentAmount * servicePremiumRatio
	netBenefit := serviceReturn - selfReturn - premium

	return models.EstimatorResult{
		SelfDirectedSuccessProbability:    int(round(selfProb)),
		ServiceAssistedSuccessProbability: int(round(serviceProb)),
		SelfDirectedExpectedReturn:        round(selfReturn),
		ServiceAssistedExpectedReturn:     round(serviceReturn),
		SelfDirectedTimeToValue:           int(round(selfDirectedMonths * timelineMultiplier)),
		ServiceAssistedTimeToValue:        int(round(serviceAssistedMonths * timelineMultiplier)),
		ServicePremium:                    round(premium),
		NetBenefit:                        round(netBenefit),
		RecommendedApproach:               Recommend(netBenefit, in.InvestmentAmount),
	}, nil
}

// Recommend partitions the real line of netBenefit into three disjoint ranges.
func Recommend(netBenefit, investmentAmount float64) models.Approach {
	switch {
	case netBenefit > investmentAmount*serviceThresholdRatio:
		return models.ApproachServiceAssisted
	case netBenefit < -investmentAmount*selfThresholdRatio:
		return models.ApproachSelfDirected
	default:
		return models.ApproachHybrid
	}
}

// Deltas derives the comparison figures the UI shows under the two columns.
func Deltas(r models.EstimatorResult) models.Comparison {
	return models.Comparison{
		SuccessRateImprovement: r.ServiceAssistedSuccessProbability - r.SelfDirectedSuccessProbability,
		MonthsFaster:           r.SelfDirectedTimeToValue - r.ServiceAssistedTimeToValue,
		ServiceInvestment:      r.ServicePremium,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// round breaks ties toward +Inf so that -0.5 becomes 0, not -1.
func round(v float64) float64 {
	return math.Floor(v + 0.5)
}
