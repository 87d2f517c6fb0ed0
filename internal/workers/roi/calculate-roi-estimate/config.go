// internal/workers/roi/calculate-roi-estimate/config.go
package calculateroiestimate

import "time"

type Config struct {
	Timeout time.Duration
	// MaxRetries caps the retries granted to a transient failure.
	MaxRetries int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    10 * time.Second,
		MaxRetries: 3,
	}
}
