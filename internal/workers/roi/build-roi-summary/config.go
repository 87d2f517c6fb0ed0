// internal/workers/roi/build-roi-summary/config.go
package buildroisummary

import "time"

type Config struct {
	Timeout time.Duration
	// MaxRetries caps the retries granted to a transient failure.
	MaxRetries int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    5 * time.Second,
		MaxRetries: 3,
	}
}
