package config

import "time"

// Default values for configuration fields.
const (
	// Parser defaults
	DefaultParserMaxLength = 500

	// Concurrency defaults
	DefaultQueueCapacity  = 100
	DefaultLockTimeout    = 5 * time.Second
	DefaultReportSchedule = "@every 15s"

	// Dispatch defaults
	DefaultDispatchEnabled  = true
	DefaultResolver         = "static"
	DefaultCacheTTL         = 5 * time.Minute
	DefaultStatusTTL        = 24 * time.Hour
	DefaultMaxResults       = 5
	DefaultNearbyLimit      = 3
	DefaultCenterLatitude   = 31.5204
	DefaultCenterLongitude  = 74.3587

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:5000"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultRequestTimeout  = 10 * time.Second
	DefaultMaxBodyBytes    = int64(16384)

	// Rate limit defaults
	DefaultRateLimitEnabled = true
	DefaultRateLimitRPS     = 10.0
	DefaultRateLimitBurst   = 20
	DefaultRateLimitTTL     = 10 * time.Minute

	// CORS defaults
	DefaultCORSEnabled = true

	// Telemetry logging defaults
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultLogAddSource   = false
	DefaultLogRedactPII   = true
	DefaultRedactLocation = false

	// Telemetry metrics defaults
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "rapidresq"
	DefaultMetricsSubsystem = "ecl"

	// Telemetry tracing defaults
	DefaultTracingEnabled     = false
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingExporter    = "otlp"
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingService     = "rapidresq"
	DefaultOTLPInsecure       = true
	DefaultOTLPTimeout        = 10 * time.Second

	// Telemetry health defaults
	DefaultHealthEnabled      = true
	DefaultHealthLiveness     = "/health"
	DefaultHealthReadiness    = "/ready"
	DefaultHealthVersion      = "/version"
	DefaultHealthCheckTimeout = 2 * time.Second
)

// DefaultParseDurationBuckets are histogram buckets for parse duration in seconds.
var DefaultParseDurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5}

// Default returns a configuration with every field set to its default.
// Boolean defaults can only be expressed here, so configuration files are
// decoded on top of this value.
func Default() *Config {
	cfg := &Config{
		Dispatch: DispatchConfig{Enabled: DefaultDispatchEnabled},
		Server: ServerConfig{
			RateLimit: RateLimitConfig{Enabled: DefaultRateLimitEnabled},
			CORS:      CORSConfig{Enabled: DefaultCORSEnabled},
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				AddSource:      DefaultLogAddSource,
				RedactPII:      DefaultLogRedactPII,
				RedactLocation: DefaultRedactLocation,
			},
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
			Tracing: TracingConfig{
				Enabled: DefaultTracingEnabled,
				OTLP:    OTLPConfig{Insecure: DefaultOTLPInsecure},
			},
			Health: HealthConfig{Enabled: DefaultHealthEnabled},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to zero-valued fields in the
// configuration. Boolean fields are left alone since false is a valid value.
func ApplyDefaults(cfg *Config) {
	applyParserDefaults(&cfg.Parser)
	applyConcurrencyDefaults(&cfg.Concurrency)
	applyDispatchDefaults(&cfg.Dispatch)
	applyServerDefaults(&cfg.Server)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyParserDefaults(cfg *ParserConfig) {
	if cfg.MaxLength == 0 {
		cfg.MaxLength = DefaultParserMaxLength
	}
	if cfg.SimulatedLatencyMax < cfg.SimulatedLatencyMin {
		cfg.SimulatedLatencyMax = cfg.SimulatedLatencyMin
	}
}

func applyConcurrencyDefaults(cfg *ConcurrencyConfig) {
	if cfg.QueueCapacity == 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}
	if cfg.LockTimeout == 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}
	if cfg.ReportSchedule == "" {
		cfg.ReportSchedule = DefaultReportSchedule
	}
}

func applyDispatchDefaults(cfg *DispatchConfig) {
	if cfg.Resolver == "" {
		cfg.Resolver = DefaultResolver
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.StatusTTL == 0 {
		cfg.StatusTTL = DefaultStatusTTL
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.NearbyLimit == 0 {
		cfg.NearbyLimit = DefaultNearbyLimit
	}
	if cfg.DefaultCenter.Latitude == 0 && cfg.DefaultCenter.Longitude == 0 {
		cfg.DefaultCenter = CoordinatesConfig{
			Latitude:  DefaultCenterLatitude,
			Longitude: DefaultCenterLongitude,
		}
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = DefaultRateLimitRPS
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = DefaultRateLimitBurst
	}
	if cfg.RateLimit.ClientTTL == 0 {
		cfg.RateLimit.ClientTTL = DefaultRateLimitTTL
	}

	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Logging
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	// Metrics
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Subsystem == "" {
		cfg.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Metrics.ParseDurationBuckets) == 0 {
		cfg.Metrics.ParseDurationBuckets = append([]float64(nil), DefaultParseDurationBuckets...)
	}

	// Tracing
	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Tracing.Exporter == "" {
		cfg.Tracing.Exporter = DefaultTracingExporter
	}
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingService
	}
	if cfg.Tracing.OTLP.Timeout == 0 {
		cfg.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}

	// Health
	if cfg.Health.LivenessPath == "" {
		cfg.Health.LivenessPath = DefaultHealthLiveness
	}
	if cfg.Health.ReadinessPath == "" {
		cfg.Health.ReadinessPath = DefaultHealthReadiness
	}
	if cfg.Health.VersionPath == "" {
		cfg.Health.VersionPath = DefaultHealthVersion
	}
	if cfg.Health.CheckTimeout == 0 {
		cfg.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
