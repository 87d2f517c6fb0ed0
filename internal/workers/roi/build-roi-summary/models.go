// internal/workers/roi/build-roi-summary/models.go
package buildroisummary

import "roi-workers/internal/models"

type Input struct {
	NormalizedInput models.EstimatorInput `json:"normalizedInput"`
	// Result is recomputed from NormalizedInput when absent.
	Result *models.EstimatorResult `json:"result,omitempty"`
}

// Output flattens the summary into process variables: comparison, headline,
// recommendationLabel and formatted.
type Output struct {
	models.Summary
}
