package estimator

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"roi-workers/internal/models"
)

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatUSD renders a whole-dollar amount such as "$2,500,000" or "-$62,375".
func FormatUSD(amount float64) string {
	rounded := round(amount)
	if math.Abs(rounded) >= math.MaxInt64 || math.IsNaN(rounded) {
		// Beyond int64; only reachable for callers that skip Validate.
		if rounded < 0 {
			return "-" + usd.Sprintf("$%v", number.Decimal(-rounded, number.MaxFractionDigits(0)))
		}
		return usd.Sprintf("$%v", number.Decimal(rounded, number.MaxFractionDigits(0)))
	}
	whole := int64(rounded)
	if whole < 0 {
		return "-" + usd.Sprintf("$%d", -whole)
	}
	return usd.Sprintf("$%d", whole)
}

// Headline is the one-line verdict shown under the recommendation badge.
// It keys off the sign of netBenefit, so a Hybrid result with a small
// positive benefit still reads as a service benefit.
func Headline(in models.EstimatorInput, r models.EstimatorResult) string {
	switch {
	case r.NetBenefit > 0:
		return "Service approach provides " + FormatUSD(r.NetBenefit) + " net benefit"
	case r.NetBenefit < -in.InvestmentAmount*selfThresholdRatio:
		return "DIY approach saves " + FormatUSD(-r.NetBenefit) + " in service costs"
	default:
		return "Consider hybrid approach with selective service support"
	}
}

// Summarize bundles the deltas, headline and formatted figures for display.
func Summarize(in models.EstimatorInput, r models.EstimatorResult) models.Summary {
	return models.Summary{
		Comparison:          Deltas(r),
		Headline:            Headline(in, r),
		RecommendationLabel: r.RecommendedApproach.Label(),
		Formatted: models.FormattedFigures{
			InvestmentAmount:              FormatUSD(in.InvestmentAmount),
			SelfDirectedExpectedReturn:    FormatUSD(r.SelfDirectedExpectedReturn),
			ServiceAssistedExpectedReturn: FormatUSD(r.ServiceAssistedExpectedReturn),
			ServicePremium:                FormatUSD(r.ServicePremium),
			NetBenefit:                    FormatUSD(r.NetBenefit),
		},
	}
}
