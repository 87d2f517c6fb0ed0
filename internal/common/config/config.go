// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Camunda   CamundaConfig           `mapstructure:"camunda"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	Logging   LoggingConfig           `mapstructure:"logging"`
	Estimator EstimatorConfig         `mapstructure:"estimator"`
	HTTP      HTTPConfig              `mapstructure:"http"`
	Registry  RegistryConfig          `mapstructure:"registry"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	Insecure       bool   `mapstructure:"insecure"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// EstimatorConfig tunes the ROI estimator surfaces. The computation itself has no knobs.
type EstimatorConfig struct {
	DefaultInvestment float64 `mapstructure:"default_investment"`
	SimulatedDelayMs  int     `mapstructure:"simulated_delay_ms"`
	CacheTTL          int     `mapstructure:"cache_ttl"`   // seconds, 0 disables memoisation
	SessionTTL        int     `mapstructure:"session_ttl"` // seconds
}

func (e EstimatorConfig) SimulatedDelay() time.Duration {
	return GetDuration(e.SimulatedDelayMs)
}

func (e EstimatorConfig) CacheTTLDuration() time.Duration {
	return time.Duration(e.CacheTTL) * time.Second
}

func (e EstimatorConfig) SessionTTLDuration() time.Duration {
	return time.Duration(e.SessionTTL) * time.Second
}

// HTTPConfig configures the synchronous estimate endpoint and the health/metrics routes.
type HTTPConfig struct {
	Address            string `mapstructure:"address"`
	RateLimitPerMinute int    `mapstructure:"rate_limit_per_minute"`
	Burst              int    `mapstructure:"burst"`
	ReadTimeout        int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout       int    `mapstructure:"write_timeout"` // milliseconds

	// AllowedOrigins feeds CORS; empty allows any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RegistryConfig points at the activity registry that carries the input schemas.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}
