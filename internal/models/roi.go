// internal/models/roi.go
package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultInvestmentAmount is applied when a caller leaves the budget empty.
const DefaultInvestmentAmount = 2500000.0

// MaxInvestmentAmount bounds the budget so every derived figure stays within int64 whole units.
const MaxInvestmentAmount = 1e15

type CompanySize string

const (
	CompanySizeStartup    CompanySize = "startup"
	CompanySizeSmall      CompanySize = "small"
	CompanySizeMedium     CompanySize = "medium"
	CompanySizeLarge      CompanySize = "large"
	CompanySizeEnterprise CompanySize = "enterprise"
)

// CompanySizes lists every accepted company size in display order.
var CompanySizes = []CompanySize{
	CompanySizeStartup,
	CompanySizeSmall,
	CompanySizeMedium,
	CompanySizeLarge,
	CompanySizeEnterprise,
}

// Multiplier returns the return/success multiplier for the size band.
func (c CompanySize) Multiplier() (float64, bool) {
	switch c {
	case CompanySizeStartup:
		return 0.7, true
	case CompanySizeSmall:
		return 0.8, true
	case CompanySizeMedium:
		return 0.9, true
	case CompanySizeLarge:
		return 1.0, true
	case CompanySizeEnterprise:
		return 1.2, true
	}
	return 0, false
}

func (c CompanySize) IsValid() bool {
	_, ok := c.Multiplier()
	return ok
}

func (c *CompanySize) UnmarshalJSON(data []byte) error {
	s, err := unmarshalEnum(data)
	if err != nil {
		return err
	}
	*c = CompanySize(s)
	return nil
}

type Industry string

const (
	IndustryTechnology    Industry = "technology"
	IndustryFinancial     Industry = "financial"
	IndustryHealthcare    Industry = "healthcare"
	IndustryManufacturing Industry = "manufacturing"
	IndustryRetail        Industry = "retail"
	IndustryOther         Industry = "other"
)

var Industries = []Industry{
	IndustryTechnology,
	IndustryFinancial,
	IndustryHealthcare,
	IndustryManufacturing,
	IndustryRetail,
	IndustryOther,
}

// SuccessBonus returns the signed success-rate adjustment as a fraction.
func (i Industry) SuccessBonus() (float64, bool) {
	switch i {
	case IndustryTechnology:
		return 0.15, true
	case IndustryFinancial:
		return -0.05, true
	case IndustryHealthcare:
		return -0.10, true
	case IndustryManufacturing:
		return 0.05, true
	case IndustryRetail:
		return 0.10, true
	case IndustryOther:
		return 0.00, true
	}
	return 0, false
}

func (i Industry) IsValid() bool {
	_, ok := i.SuccessBonus()
	return ok
}

func (i *Industry) UnmarshalJSON(data []byte) error {
	s, err := unmarshalEnum(data)
	if err != nil {
		return err
	}
	*i = Industry(s)
	return nil
}

type TimelinePreference string

const (
	TimelineAggressive   TimelinePreference = "aggressive"
	TimelineModerate     TimelinePreference = "moderate"
	TimelineConservative TimelinePreference = "conservative"
)

var TimelinePreferences = []TimelinePreference{
	TimelineAggressive,
	TimelineModerate,
	TimelineConservative,
}

// Multiplier scales time-to-value; aggressive plans take longer to pay back.
func (t TimelinePreference) Multiplier() (float64, bool) {
	switch t {
	case TimelineAggressive:
		return 1.2, true
	case TimelineModerate:
		return 1.0, true
	case TimelineConservative:
		return 0.8, true
	}
	return 0, false
}

func (t TimelinePreference) IsValid() bool {
	_, ok := t.Multiplier()
	return ok
}

func (t *TimelinePreference) UnmarshalJSON(data []byte) error {
	s, err := unmarshalEnum(data)
	if err != nil {
		return err
	}
	*t = TimelinePreference(s)
	return nil
}

// TalentBonus returns the success adjustment for having in-house AI talent.
func TalentBonus(hasInternalTalent bool) float64 {
	if hasInternalTalent {
		return 0.10
	}
	return -0.15
}

type Approach string

const (
	ApproachSelfDirected    Approach = "self-directed"
	ApproachServiceAssisted Approach = "service-assisted"
	ApproachHybrid          Approach = "hybrid"
)

// Label is the wording used by the data room UI.
func (a Approach) Label() string {
	switch a {
	case ApproachSelfDirected:
		return "DIY"
	case ApproachServiceAssisted:
		return "Service-Assisted"
	case ApproachHybrid:
		return "Hybrid"
	}
	return string(a)
}

// EstimatorInput holds the project parameters collected from the ROI form.
type EstimatorInput struct {
	InvestmentAmount   float64            `json:"investmentAmount"`
	CompanySize        CompanySize        `json:"companySize"`
	Industry           Industry           `json:"industry"`
	HasInternalTalent  bool               `json:"hasInternalTalent"`
	TimelinePreference TimelinePreference `json:"timelinePreference"`
}

// EstimatorResult is derived from an EstimatorInput and never persisted.
type EstimatorResult struct {
	SelfDirectedSuccessProbability    int      `json:"selfDirectedSuccessProbability"`
	ServiceAssistedSuccessProbability int      `json:"serviceAssistedSuccessProbability"`
	SelfDirectedExpectedReturn        float64  `json:"selfDirectedExpectedReturn"`
	ServiceAssistedExpectedReturn     float64  `json:"serviceAssistedExpectedReturn"`
	SelfDirectedTimeToValue           int      `json:"selfDirectedTimeToValue"`
	ServiceAssistedTimeToValue        int      `json:"serviceAssistedTimeToValue"`
	ServicePremium                    float64  `json:"servicePremium"`
	NetBenefit                        float64  `json:"netBenefit"`
	RecommendedApproach               Approach `json:"recommendedApproach"`
}

// Comparison carries the display deltas shown next to the two approaches.
type Comparison struct {
	SuccessRateImprovement int     `json:"successRateImprovement"`
	MonthsFaster           int     `json:"monthsFaster"`
	ServiceInvestment      float64 `json:"serviceInvestment"`
}

func unmarshalEnum(data []byte) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", fmt.Errorf("expected string: %w", err)
	}
	return strings.ToLower(strings.TrimSpace(s)), nil
}

// Summary is the presentation view of an estimate.
type Summary struct {
	Comparison          Comparison       `json:"comparison"`
	Headline            string           `json:"headline"`
	RecommendationLabel string           `json:"recommendationLabel"`
	Formatted           FormattedFigures `json:"formatted"`
}

// FormattedFigures holds whole-dollar strings such as "$2,500,000".
type FormattedFigures struct {
	InvestmentAmount              string `json:"investmentAmount"`
	SelfDirectedExpectedReturn    string `json:"selfDirectedExpectedReturn"`
	ServiceAssistedExpectedReturn string `json:"serviceAssistedExpectedReturn"`
	ServicePremium                string `json:"servicePremium"`
	NetBenefit                    string `json:"netBenefit"`
}

// SessionEstimate is what gets published as the latest estimate of a UI session.
type SessionEstimate struct {
	SessionID  string          `json:"sessionId"`
	Revision   int64           `json:"revision"`
	EstimateID string          `json:"estimateId"`
	Input      EstimatorInput  `json:"input"`
	Result     EstimatorResult `json:"result"`
}
