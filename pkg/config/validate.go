package config

import (
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateParser(&cfg.Parser)...)
	errs = append(errs, validateConcurrency(&cfg.Concurrency)...)
	errs = append(errs, validateDispatch(&cfg.Dispatch)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateParser(cfg *ParserConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxLength < 1 {
		errs = append(errs, FieldError{
			Field:   "parser.max_length",
			Message: "max length must be positive",
		})
	}
	if cfg.SimulatedLatencyMin < 0 {
		errs = append(errs, FieldError{
			Field:   "parser.simulated_latency_min",
			Message: "latency must be non-negative",
		})
	}
	if cfg.SimulatedLatencyMax < cfg.SimulatedLatencyMin {
		errs = append(errs, FieldError{
			Field:   "parser.simulated_latency_max",
			Message: "max latency must not be below min latency",
		})
	}

	return errs
}

func validateConcurrency(cfg *ConcurrencyConfig) []FieldError {
	var errs []FieldError

	if cfg.QueueCapacity < 1 {
		errs = append(errs, FieldError{
			Field:   "concurrency.queue_capacity",
			Message: "queue capacity must be positive",
		})
	}
	if cfg.LockTimeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "concurrency.lock_timeout",
			Message: "lock timeout must be positive",
		})
	}
	if cfg.MaxInFlight < 0 {
		errs = append(errs, FieldError{
			Field:   "concurrency.max_in_flight",
			Message: "max in flight must be non-negative",
		})
	}
	if cfg.DrainBatch < 0 {
		errs = append(errs, FieldError{
			Field:   "concurrency.drain_batch",
			Message: "drain batch must be non-negative",
		})
	}
	if cfg.ReportSchedule != "" {
		if _, err := cron.ParseStandard(cfg.ReportSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "concurrency.report_schedule",
				Message: fmt.Sprintf("invalid cron schedule %q: %v", cfg.ReportSchedule, err),
			})
		}
	}

	return errs
}

func validateDispatch(cfg *DispatchConfig) []FieldError {
	var errs []FieldError

	validResolvers := map[string]bool{"static": true, "none": true}
	if !validResolvers[cfg.Resolver] {
		errs = append(errs, FieldError{
			Field:   "dispatch.resolver",
			Message: fmt.Sprintf("invalid resolver %q: must be 'static' or 'none'", cfg.Resolver),
		})
	}
	if cfg.CacheTTL < 0 {
		errs = append(errs, FieldError{
			Field:   "dispatch.cache_ttl",
			Message: "cache ttl must be non-negative",
		})
	}
	if cfg.StatusTTL <= 0 {
		errs = append(errs, FieldError{
			Field:   "dispatch.status_ttl",
			Message: "status ttl must be positive",
		})
	}
	if cfg.MaxResults < 1 {
		errs = append(errs, FieldError{
			Field:   "dispatch.max_results",
			Message: "max results must be positive",
		})
	}
	if cfg.NearbyLimit < 0 {
		errs = append(errs, FieldError{
			Field:   "dispatch.nearby_limit",
			Message: "nearby limit must be non-negative",
		})
	}
	if lat := cfg.DefaultCenter.Latitude; lat < -90 || lat > 90 {
		errs = append(errs, FieldError{
			Field:   "dispatch.default_center.latitude",
			Message: "latitude must be between -90 and 90",
		})
	}
	if lon := cfg.DefaultCenter.Longitude; lon < -180 || lon > 180 {
		errs = append(errs, FieldError{
			Field:   "dispatch.default_center.longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	return errs
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address %q: must be host:port", cfg.ListenAddress),
		})
	}

	timeouts := []struct {
		field string
		value time.Duration
	}{
		{"server.read_timeout", cfg.ReadTimeout},
		{"server.write_timeout", cfg.WriteTimeout},
		{"server.idle_timeout", cfg.IdleTimeout},
		{"server.shutdown_timeout", cfg.ShutdownTimeout},
		{"server.request_timeout", cfg.RequestTimeout},
	}
	for _, t := range timeouts {
		if t.value <= 0 {
			errs = append(errs, FieldError{Field: t.field, Message: "timeout must be positive"})
		}
	}

	if cfg.MaxBodyBytes < 1 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must be positive",
		})
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RequestsPerSecond <= 0 {
			errs = append(errs, FieldError{
				Field:   "server.rate_limit.requests_per_second",
				Message: "requests per second must be positive when rate limiting is enabled",
			})
		}
		if cfg.RateLimit.Burst < 1 {
			errs = append(errs, FieldError{
				Field:   "server.rate_limit.burst",
				Message: "burst must be at least 1 when rate limiting is enabled",
			})
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Validate logging level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	// Validate logging format
	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text' or 'console'", cfg.Logging.Format),
		})
	}

	for i, p := range cfg.Logging.RedactPatterns {
		if _, err := regexp.Compile(p.Pattern); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: fmt.Sprintf("invalid regular expression: %v", err),
			})
		}
	}

	// Validate metrics
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}
	for i := 1; i < len(cfg.Metrics.ParseDurationBuckets); i++ {
		if cfg.Metrics.ParseDurationBuckets[i] <= cfg.Metrics.ParseDurationBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.parse_duration_buckets",
				Message: "buckets must be strictly increasing",
			})
			break
		}
	}

	// Validate tracing configuration
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	validSamplers := map[string]bool{"always": true, "never": true, "ratio": true, "parent": true}
	if !validSamplers[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', 'ratio' or 'parent'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}
	if cfg.Tracing.Exporter != "otlp" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.exporter",
			Message: fmt.Sprintf("unsupported exporter %q: must be 'otlp'", cfg.Tracing.Exporter),
		})
	}

	// Validate health check configuration
	if cfg.Health.Enabled {
		paths := []struct{ field, value string }{
			{"telemetry.health.liveness_path", cfg.Health.LivenessPath},
			{"telemetry.health.readiness_path", cfg.Health.ReadinessPath},
			{"telemetry.health.version_path", cfg.Health.VersionPath},
		}
		for _, p := range paths {
			if !strings.HasPrefix(p.value, "/") {
				errs = append(errs, FieldError{Field: p.field, Message: "path must start with /"})
			}
		}
		if cfg.Health.CheckTimeout <= 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout must be positive",
			})
		}
		if cfg.Health.CheckTimeout > 60*time.Second {
			errs = append(errs, FieldError{
				Field:   "telemetry.health.check_timeout",
				Message: "check timeout exceeds reasonable limit (60s)",
			})
		}
	}

	return errs
}
