package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "RESQ_"

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is decoded on top of Default(), so omitted keys keep their default
// values. Unknown keys are rejected. The configuration is not modified by
// environment variables; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML configuration data and applies defaults. It does not
// validate. Empty input yields the default configuration.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention RESQ_SECTION_FIELD (e.g., RESQ_SERVER_LISTEN_ADDRESS) and always
// take precedence over file-based configuration.
//
// An empty path skips the file and starts from Default().
//
// The loading sequence is:
// 1. Load YAML from file (or defaults)
// 2. Apply environment variable overrides
// 3. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed values are ignored and leave the current value in place.
func applyEnvOverrides(cfg *Config) {
	// Parser overrides
	envInt("PARSER_MAX_LENGTH", &cfg.Parser.MaxLength)
	envDuration("PARSER_SIMULATED_LATENCY_MIN", &cfg.Parser.SimulatedLatencyMin)
	envDuration("PARSER_SIMULATED_LATENCY_MAX", &cfg.Parser.SimulatedLatencyMax)

	// Concurrency overrides
	envInt("CONCURRENCY_QUEUE_CAPACITY", &cfg.Concurrency.QueueCapacity)
	envDuration("CONCURRENCY_LOCK_TIMEOUT", &cfg.Concurrency.LockTimeout)
	envInt("CONCURRENCY_MAX_IN_FLIGHT", &cfg.Concurrency.MaxInFlight)
	envString("CONCURRENCY_REPORT_SCHEDULE", &cfg.Concurrency.ReportSchedule)
	if val := os.Getenv(EnvPrefix + "CONCURRENCY_INITIAL_COUNTER"); val != "" {
		if n, err := strconv.ParseUint(val, 10, 64); err == nil {
			cfg.Concurrency.InitialCounter = n
		}
	}

	// Dispatch overrides
	envBool("DISPATCH_ENABLED", &cfg.Dispatch.Enabled)
	envString("DISPATCH_RESOLVER", &cfg.Dispatch.Resolver)
	envDuration("DISPATCH_CACHE_TTL", &cfg.Dispatch.CacheTTL)
	envInt("DISPATCH_MAX_RESULTS", &cfg.Dispatch.MaxResults)

	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)
	envBool("SERVER_RATE_LIMIT_ENABLED", &cfg.Server.RateLimit.Enabled)
	envFloat("SERVER_RATE_LIMIT_REQUESTS_PER_SECOND", &cfg.Server.RateLimit.RequestsPerSecond)
	envInt("SERVER_RATE_LIMIT_BURST", &cfg.Server.RateLimit.Burst)
	if val := os.Getenv(EnvPrefix + "SERVER_CORS_ALLOWED_ORIGINS"); val != "" {
		var origins []string
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.CORS.AllowedOrigins = origins
	}

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_LOGGING_REDACT_PII", &cfg.Telemetry.Logging.RedactPII)
	envBool("TELEMETRY_LOGGING_REDACT_LOCATION", &cfg.Telemetry.Logging.RedactLocation)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envFloat("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
}

func envString(name string, dst *string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envFloat(name string, dst *float64) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
