// internal/workers/roi/calculate-roi-estimate/models.go
package calculateroiestimate

import "roi-workers/internal/models"

// Input prefers the validated normalizedInput; when the process skipped
// validation the form fields are read from the top level instead.
// InvestmentAmount shadows the embedded field so an absent or null
// investment can be told apart from an explicit zero.
type Input struct {
	NormalizedInput  *models.EstimatorInput `json:"normalizedInput,omitempty"`
	SessionID        string                 `json:"sessionId,omitempty"`
	Revision         int64                  `json:"revision,omitempty"`
	InvestmentAmount *float64               `json:"investmentAmount,omitempty"`

	models.EstimatorInput
}

type Output struct {
	EstimateID string                 `json:"estimateId"`
	Result     models.EstimatorResult `json:"result"`
	Published  bool                   `json:"published"`
	Stale      bool                   `json:"stale"`
	CacheHit   bool                   `json:"cacheHit"`
}

func (in *Input) estimatorInput(resolve func(*float64) float64) models.EstimatorInput {
	if in.NormalizedInput != nil {
		return *in.NormalizedInput
	}
	out := in.EstimatorInput
	out.InvestmentAmount = resolve(in.InvestmentAmount)
	return out
}
