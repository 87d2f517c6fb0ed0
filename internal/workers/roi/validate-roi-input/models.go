// internal/workers/roi/validate-roi-input/models.go
package validateroiinput

import (
	"roi-workers/internal/common/validation"
	"roi-workers/internal/models"
)

// Input is the raw variable document of the job. It stays untyped so the schema
// sees exactly what the process sent.
type Input struct {
	Variables map[string]interface{}
}

type Output struct {
	Valid            bool                         `json:"valid"`
	NormalizedInput  *models.EstimatorInput       `json:"normalizedInput,omitempty"`
	ValidationErrors []validation.ValidationError `json:"validationErrors"`
}
