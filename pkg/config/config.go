package config

import "time"

// Config is the root configuration structure for the RapidResQ command
// processor. It contains the parser limits, the concurrency coordinator,
// the dispatcher, the HTTP server and telemetry.
type Config struct {
	// Parser contains input limits and the simulated parse latency.
	Parser ParserConfig `yaml:"parser"`

	// Concurrency contains the guard, queue and admission settings.
	Concurrency ConcurrencyConfig `yaml:"concurrency"`

	// Dispatch contains command execution settings.
	Dispatch DispatchConfig `yaml:"dispatch"`

	// Server contains HTTP server configuration.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains configuration for observability including logging,
	// metrics, tracing and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ParserConfig contains command language settings.
type ParserConfig struct {
	// MaxLength is the longest accepted command in characters.
	// Default: 500
	MaxLength int `yaml:"max_length"`

	// SimulatedLatencyMin and SimulatedLatencyMax bound the wait performed
	// inside the parser guard for each request. Both zero disables it.
	// Default: 0
	SimulatedLatencyMin time.Duration `yaml:"simulated_latency_min"`
	SimulatedLatencyMax time.Duration `yaml:"simulated_latency_max"`
}

// ConcurrencyConfig contains coordinator settings.
type ConcurrencyConfig struct {
	// QueueCapacity is the size of the request queue.
	// Default: 100
	QueueCapacity int `yaml:"queue_capacity"`

	// LockTimeout bounds the wait for the parser guard.
	// Default: 5s
	LockTimeout time.Duration `yaml:"lock_timeout"`

	// MaxInFlight caps concurrently processed requests (0 = unlimited).
	// Default: 0
	MaxInFlight int `yaml:"max_in_flight"`

	// InitialCounter is the starting value of the emergency ID counter.
	// Default: 0
	InitialCounter uint64 `yaml:"initial_counter"`

	// ReportSchedule is a cron expression for publishing coordinator
	// snapshots to metrics. Empty disables reporting.
	// Default: "@every 15s"
	ReportSchedule string `yaml:"report_schedule"`

	// DrainBatch is the number of queue entries drained per report
	// (0 = leave the queue for external consumers).
	// Default: 0
	DrainBatch int `yaml:"drain_batch"`
}

// DispatchConfig contains command execution settings.
type DispatchConfig struct {
	// Enabled controls whether parsed commands are executed by default.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Resolver selects the location resolver. Options: "static", "none".
	// Default: "static"
	Resolver string `yaml:"resolver"`

	// CacheTTL is how long resolved locations are cached (0 disables).
	// Default: 5m
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// StatusTTL is how long request states are remembered.
	// Default: 24h
	StatusTTL time.Duration `yaml:"status_ttl"`

	// MaxResults caps query results.
	// Default: 5
	MaxResults int `yaml:"max_results"`

	// NearbyLimit caps the services suggested with an alert.
	// Default: 3
	NearbyLimit int `yaml:"nearby_limit"`

	// DefaultCenter is the search centre for locations that cannot be
	// geocoded.
	// Default: Lahore (31.5204, 74.3587)
	DefaultCenter CoordinatesConfig `yaml:"default_center"`
}

// CoordinatesConfig is a point in decimal degrees.
type CoordinatesConfig struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:5000", "0.0.0.0:5000").
	// Default: "127.0.0.1:5000"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RequestTimeout bounds the handling of a single API request.
	// Default: 10s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxBodyBytes limits request bodies.
	// Default: 16384
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// RateLimit contains per-client rate limiting.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// RateLimitConfig contains per-client token bucket settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is applied.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// RequestsPerSecond is the sustained rate per client.
	// Default: 10
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is the bucket size per client.
	// Default: 20
	Burst int `yaml:"burst"`

	// ClientTTL is how long an idle client's bucket is kept.
	// Default: 10m
	ClientTTL time.Duration `yaml:"client_ttl"`
}

// CORSConfig contains CORS configuration.
type CORSConfig struct {
	// Enabled controls whether CORS headers are sent.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins lists allowed origins. "*" allows any.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPII masks caller phone numbers and emails in logs.
	// Default: true
	RedactPII bool `yaml:"redact_pii"`

	// RedactLocation also masks coordinates and location fields.
	// Default: false
	RedactLocation bool `yaml:"redact_location"`

	// RedactPatterns contains custom redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "rapidresq"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "ecl"
	Subsystem string `yaml:"subsystem"`

	// ParseDurationBuckets defines histogram buckets for parse duration (seconds).
	// Default: [0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5]
	ParseDurationBuckets []float64 `yaml:"parse_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio", "parent"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Exporter determines the trace exporter to use.
	// Options: "otlp"
	// Default: "otlp"
	Exporter string `yaml:"exporter"`

	// Endpoint is the trace collector endpoint, e.g. "localhost:4317".
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "rapidresq"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for OTLP connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath is the path for the version information endpoint.
	// Default: "/version"
	VersionPath string `yaml:"version_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 2s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
