// Package application wires the fact-checking service together: it owns the
// runtime configuration surface loaded from YAML and environment variables
// and validated before any component starts.
package application

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// AppConfig is the complete runtime configuration for the service.
// Load it with LoadConfig, which layers a YAML file and environment
// overrides on top of DefaultConfig and validates the result.
type AppConfig struct {
	// Server configures the HTTP listener and request handling limits.
	Server ServerConfig `yaml:"server" validate:"required"`
	// Provider selects and configures the upstream LLM provider.
	Provider ProviderConfig `yaml:"provider" validate:"required"`
	// Resilience tunes the middleware chain applied to upstream calls.
	Resilience ResilienceConfig `yaml:"resilience"`
	// Telemetry controls metrics and tracing emission.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig configures the HTTP surface of the service.
type ServerConfig struct {
	// Host is the interface the listener binds to. Empty binds all
	// interfaces.
	Host string `yaml:"host"`
	// Port is the TCP port the listener binds to.
	Port int `yaml:"port" validate:"required,min=1,max=65535"`
	// ReadTimeoutSeconds bounds how long the server waits for a complete
	// request, including the body.
	ReadTimeoutSeconds int `yaml:"read_timeout_seconds" validate:"omitempty,min=1,max=300"`
	// WriteTimeoutSeconds bounds how long the server spends writing a
	// response. Fact checks block on the upstream model, so this must
	// exceed the provider timeout.
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds" validate:"omitempty,min=1,max=600"`
	// ShutdownGraceSeconds is the drain window allowed for in-flight
	// requests during graceful shutdown.
	ShutdownGraceSeconds int `yaml:"shutdown_grace_seconds" validate:"omitempty,min=0,max=300"`
	// AllowedOrigins lists CORS origins permitted to call the API.
	// A single "*" entry permits any origin.
	AllowedOrigins []string `yaml:"allowed_origins" validate:"max=50"`
}

// ProviderConfig selects the upstream LLM provider and its credentials.
// The API key is never stored in configuration; APIKeyEnv names the
// environment variable that carries it.
type ProviderConfig struct {
	// Type identifies the provider implementation to instantiate.
	Type string `yaml:"type" validate:"required,oneof=openai anthropic google"`
	// Model is the provider-side model identifier. Empty selects the
	// provider's default model.
	Model string `yaml:"model" validate:"omitempty,min=1,max=255"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env" validate:"required,min=1,max=255"`
	// BaseURL overrides the provider endpoint, for proxies and
	// compatible self-hosted gateways.
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
	// TimeoutSeconds bounds a single upstream request.
	TimeoutSeconds int `yaml:"timeout_seconds" validate:"omitempty,min=1,max=600"`
}

// ResilienceConfig tunes the middleware chain wrapped around upstream
// model calls. Zero values disable the corresponding middleware.
type ResilienceConfig struct {
	// Retry configures transparent retry of transient upstream failures.
	Retry RetryConfig `yaml:"retry"`
	// RateLimit caps the outbound request rate to the provider.
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	// CircuitBreaker sheds load when the provider fails persistently.
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// RetryConfig specifies the retry strategy for transient upstream failures.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first.
	// Values below 2 disable retries.
	MaxAttempts int `yaml:"max_attempts" validate:"min=0,max=10"`
	// InitialWaitMS is the base delay in milliseconds before the first
	// retry. Subsequent delays back off exponentially.
	InitialWaitMS int `yaml:"initial_wait_ms" validate:"omitempty,min=0,max=60000"`
	// MaxWaitMS caps the delay between attempts in milliseconds.
	MaxWaitMS int `yaml:"max_wait_ms" validate:"omitempty,min=0,max=300000"`
}

// RateLimitConfig caps the outbound request rate to the provider.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate. Zero disables limiting.
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"omitempty,min=0,max=10000"`
	// Burst is the number of requests allowed to exceed the sustained
	// rate momentarily.
	Burst int `yaml:"burst" validate:"omitempty,min=1,max=10000"`
}

// CircuitBreakerConfig sheds load when the provider fails persistently.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the circuit. Zero disables the breaker.
	FailureThreshold int `yaml:"failure_threshold" validate:"omitempty,min=0,max=1000"`
	// CooldownSeconds is how long the circuit stays open before a probe
	// request is allowed through.
	CooldownSeconds int `yaml:"cooldown_seconds" validate:"omitempty,min=1,max=3600"`
}

// TelemetryConfig controls metrics and tracing emission.
type TelemetryConfig struct {
	// MetricsEnabled exposes the Prometheus endpoint and records
	// pipeline metrics when true.
	MetricsEnabled bool `yaml:"metrics_enabled"`
	// ServiceName is the identity reported on traces.
	ServiceName string `yaml:"service_name" validate:"omitempty,min=1,max=255"`
}

// DefaultConfig returns the configuration used when no file or override
// supplies a value. The defaults run the service against OpenAI with
// conservative resilience settings.
func DefaultConfig() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			Port:                 8000,
			ReadTimeoutSeconds:   30,
			WriteTimeoutSeconds:  120,
			ShutdownGraceSeconds: 15,
			AllowedOrigins:       []string{"*"},
		},
		Provider: ProviderConfig{
			Type:           "openai",
			APIKeyEnv:      "OPENAI_API_KEY",
			TimeoutSeconds: 60,
		},
		Resilience: ResilienceConfig{
			Retry: RetryConfig{
				MaxAttempts:   3,
				InitialWaitMS: 500,
				MaxWaitMS:     10000,
			},
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 10,
				Burst:             5,
			},
			CircuitBreaker: CircuitBreakerConfig{
				FailureThreshold: 5,
				CooldownSeconds:  30,
			},
		},
		Telemetry: TelemetryConfig{
			MetricsEnabled: true,
			ServiceName:    "teapot-facts",
		},
	}
}

// LoadConfig builds the effective configuration. The path may be empty,
// in which case only defaults and environment overrides apply. The
// returned configuration has passed validation.
func LoadConfig(path string) (AppConfig, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return AppConfig{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// envPrefix scopes all environment overrides to this service.
const envPrefix = "TEAPOT_FACTS_"

// applyEnvOverrides layers environment variables over the loaded
// configuration. Only operationally useful knobs are exposed; structural
// settings stay in the file.
func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv(envPrefix + "HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv(envPrefix + "PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv(envPrefix + "PROVIDER"); v != "" {
		cfg.Provider.Type = v
	}
	if v := os.Getenv(envPrefix + "MODEL"); v != "" {
		cfg.Provider.Model = v
	}
	if v := os.Getenv(envPrefix + "API_KEY_ENV"); v != "" {
		cfg.Provider.APIKeyEnv = v
	}
	if v := os.Getenv(envPrefix + "BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv(envPrefix + "METRICS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Telemetry.MetricsEnabled = enabled
		}
	}
}

// Validate checks structural constraints declared in the struct tags plus
// cross-field rules the tags cannot express.
func (c *AppConfig) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// The write timeout must outlast the provider timeout, otherwise the
	// server drops connections while a verification is still in flight.
	if c.Server.WriteTimeoutSeconds > 0 && c.Provider.TimeoutSeconds > 0 &&
		c.Server.WriteTimeoutSeconds < c.Provider.TimeoutSeconds {
		return fmt.Errorf(
			"invalid configuration: server write timeout (%ds) is shorter than provider timeout (%ds)",
			c.Server.WriteTimeoutSeconds, c.Provider.TimeoutSeconds)
	}

	if c.Resilience.Retry.MaxWaitMS > 0 &&
		c.Resilience.Retry.MaxWaitMS < c.Resilience.Retry.InitialWaitMS {
		return fmt.Errorf(
			"invalid configuration: retry max wait (%dms) is shorter than initial wait (%dms)",
			c.Resilience.Retry.MaxWaitMS, c.Resilience.Retry.InitialWaitMS)
	}

	return nil
}

// APIKey resolves the provider API key from the environment variable
// named by the configuration.
func (c *AppConfig) APIKey() (string, error) {
	key := os.Getenv(c.Provider.APIKeyEnv)
	if key == "" {
		return "", fmt.Errorf("environment variable %s is not set", c.Provider.APIKeyEnv)
	}
	return key, nil
}

// ProviderTimeout returns the configured upstream timeout as a duration.
func (c *AppConfig) ProviderTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSeconds) * time.Second
}

// ListenAddr returns the host:port string for the HTTP listener.
func (c *AppConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
