// internal/workers/roi/validate-roi-input/config.go
package validateroiinput

import (
	"time"

	"roi-workers/internal/models"
)

type Config struct {
	Timeout           time.Duration
	DefaultInvestment float64
	// ThrowOnInvalid raises INVALID_ROI_INPUT; when false the job completes with valid=false
	// and the process routes on the flag.
	ThrowOnInvalid bool
	// MaxRetries caps the retries granted to a transient failure.
	MaxRetries int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:           10 * time.Second,
		DefaultInvestment: models.DefaultInvestmentAmount,
		ThrowOnInvalid:    true,
		MaxRetries:        3,
	}
}
