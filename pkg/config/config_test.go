package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resq.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

// ============================================================================
// Defaults
// ============================================================================

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Parser.MaxLength != 500 {
		t.Errorf("Expected max length 500, got %d", cfg.Parser.MaxLength)
	}
	if cfg.Concurrency.QueueCapacity != 100 {
		t.Errorf("Expected queue capacity 100, got %d", cfg.Concurrency.QueueCapacity)
	}
	if cfg.Concurrency.LockTimeout != 5*time.Second {
		t.Errorf("Expected lock timeout 5s, got %v", cfg.Concurrency.LockTimeout)
	}
	if !cfg.Dispatch.Enabled || cfg.Dispatch.Resolver != "static" {
		t.Errorf("Unexpected dispatch defaults %+v", cfg.Dispatch)
	}
	if cfg.Dispatch.DefaultCenter.Latitude != DefaultCenterLatitude {
		t.Errorf("Expected default centre latitude %v, got %v", DefaultCenterLatitude, cfg.Dispatch.DefaultCenter.Latitude)
	}
	if cfg.Server.ListenAddress != "127.0.0.1:5000" {
		t.Errorf("Expected listen address 127.0.0.1:5000, got %s", cfg.Server.ListenAddress)
	}
	if !cfg.Telemetry.Logging.RedactPII {
		t.Error("Expected PII redaction enabled by default")
	}
	if !cfg.Telemetry.Metrics.Enabled || !cfg.Telemetry.Health.Enabled {
		t.Error("Expected metrics and health enabled by default")
	}
	if cfg.Telemetry.Tracing.Enabled {
		t.Error("Expected tracing disabled by default")
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		Concurrency: ConcurrencyConfig{QueueCapacity: 7},
		Parser:      ParserConfig{SimulatedLatencyMin: 100 * time.Millisecond},
	}
	ApplyDefaults(cfg)

	if cfg.Concurrency.QueueCapacity != 7 {
		t.Errorf("Expected queue capacity 7, got %d", cfg.Concurrency.QueueCapacity)
	}
	if cfg.Parser.SimulatedLatencyMax != 100*time.Millisecond {
		t.Errorf("Expected max latency raised to min, got %v", cfg.Parser.SimulatedLatencyMax)
	}
	if cfg.Telemetry.Metrics.ParseDurationBuckets[0] != DefaultParseDurationBuckets[0] {
		t.Error("Expected default buckets")
	}
}

// ============================================================================
// Loading
// ============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:  "empty input yields defaults",
			input: "",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Concurrency.QueueCapacity != DefaultQueueCapacity {
					t.Errorf("Expected default capacity, got %d", cfg.Concurrency.QueueCapacity)
				}
			},
		},
		{
			name: "partial override keeps boolean defaults",
			input: `
concurrency:
  queue_capacity: 10
  lock_timeout: 250ms
telemetry:
  logging:
    level: debug
`,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Concurrency.QueueCapacity != 10 {
					t.Errorf("Expected capacity 10, got %d", cfg.Concurrency.QueueCapacity)
				}
				if cfg.Concurrency.LockTimeout != 250*time.Millisecond {
					t.Errorf("Expected lock timeout 250ms, got %v", cfg.Concurrency.LockTimeout)
				}
				if cfg.Telemetry.Logging.Level != "debug" {
					t.Errorf("Expected debug level, got %s", cfg.Telemetry.Logging.Level)
				}
				if !cfg.Telemetry.Logging.RedactPII || !cfg.Dispatch.Enabled {
					t.Error("Expected untouched booleans to keep defaults")
				}
			},
		},
		{
			name: "explicit false",
			input: `
telemetry:
  metrics:
    enabled: false
`,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Telemetry.Metrics.Enabled {
					t.Error("Expected metrics disabled")
				}
			},
		},
		{
			name:    "unknown field",
			input:   "parser:\n  max_lenght: 10\n",
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			input:   "parser: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "0.0.0.0:8088"
dispatch:
  max_results: 3
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.ListenAddress != "0.0.0.0:8088" {
		t.Errorf("Expected listen address 0.0.0.0:8088, got %s", cfg.Server.ListenAddress)
	}
	if cfg.Dispatch.MaxResults != 3 {
		t.Errorf("Expected max results 3, got %d", cfg.Dispatch.MaxResults)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}

	path := writeConfig(t, "concurrency:\n  queue_capacity: -1\n")
	_, err := LoadConfig(path)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if verr.Errors[0].Field != "concurrency.queue_capacity" {
		t.Errorf("Expected queue_capacity error, got %s", verr.Errors[0].Field)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	t.Setenv("RESQ_SERVER_LISTEN_ADDRESS", "127.0.0.1:9999")
	t.Setenv("RESQ_CONCURRENCY_QUEUE_CAPACITY", "42")
	t.Setenv("RESQ_CONCURRENCY_LOCK_TIMEOUT", "2s")
	t.Setenv("RESQ_CONCURRENCY_INITIAL_COUNTER", "1000")
	t.Setenv("RESQ_DISPATCH_ENABLED", "false")
	t.Setenv("RESQ_SERVER_RATE_LIMIT_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("RESQ_SERVER_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RESQ_TELEMETRY_LOGGING_LEVEL", "warn")
	t.Setenv("RESQ_PARSER_MAX_LENGTH", "not-a-number")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides failed: %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:9999" {
		t.Errorf("Expected overridden listen address, got %s", cfg.Server.ListenAddress)
	}
	if cfg.Concurrency.QueueCapacity != 42 {
		t.Errorf("Expected capacity 42, got %d", cfg.Concurrency.QueueCapacity)
	}
	if cfg.Concurrency.LockTimeout != 2*time.Second {
		t.Errorf("Expected lock timeout 2s, got %v", cfg.Concurrency.LockTimeout)
	}
	if cfg.Concurrency.InitialCounter != 1000 {
		t.Errorf("Expected initial counter 1000, got %d", cfg.Concurrency.InitialCounter)
	}
	if cfg.Dispatch.Enabled {
		t.Error("Expected dispatch disabled")
	}
	if cfg.Server.RateLimit.RequestsPerSecond != 2.5 {
		t.Errorf("Expected 2.5 rps, got %v", cfg.Server.RateLimit.RequestsPerSecond)
	}
	if len(cfg.Server.CORS.AllowedOrigins) != 2 || cfg.Server.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("Unexpected origins %v", cfg.Server.CORS.AllowedOrigins)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("Expected warn level, got %s", cfg.Telemetry.Logging.Level)
	}
	if cfg.Parser.MaxLength != DefaultParserMaxLength {
		t.Errorf("Expected malformed override ignored, got %d", cfg.Parser.MaxLength)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidAfterOverride(t *testing.T) {
	t.Setenv("RESQ_TELEMETRY_LOGGING_LEVEL", "verbose")
	if _, err := LoadConfigWithEnvOverrides(""); err == nil {
		t.Error("Expected validation error after override")
	}
}

// ============================================================================
// Validation
// ============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(cfg *Config)
		wantField string
	}{
		{"zero max length", func(c *Config) { c.Parser.MaxLength = 0 }, "parser.max_length"},
		{"latency inverted", func(c *Config) {
			c.Parser.SimulatedLatencyMin = time.Second
			c.Parser.SimulatedLatencyMax = time.Millisecond
		}, "parser.simulated_latency_max"},
		{"zero lock timeout", func(c *Config) { c.Concurrency.LockTimeout = 0 }, "concurrency.lock_timeout"},
		{"bad cron", func(c *Config) { c.Concurrency.ReportSchedule = "every minute" }, "concurrency.report_schedule"},
		{"negative in flight", func(c *Config) { c.Concurrency.MaxInFlight = -1 }, "concurrency.max_in_flight"},
		{"unknown resolver", func(c *Config) { c.Dispatch.Resolver = "google" }, "dispatch.resolver"},
		{"latitude out of range", func(c *Config) { c.Dispatch.DefaultCenter.Latitude = 91 }, "dispatch.default_center.latitude"},
		{"bad listen address", func(c *Config) { c.Server.ListenAddress = "localhost" }, "server.listen_address"},
		{"zero request timeout", func(c *Config) { c.Server.RequestTimeout = 0 }, "server.request_timeout"},
		{"zero burst", func(c *Config) { c.Server.RateLimit.Burst = 0 }, "server.rate_limit.burst"},
		{"bad log format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }, "telemetry.logging.format"},
		{"bad redact pattern", func(c *Config) {
			c.Telemetry.Logging.RedactPatterns = []RedactPattern{{Name: "x", Pattern: "[", Replacement: "*"}}
		}, "telemetry.logging.redact_patterns[0].pattern"},
		{"metrics path", func(c *Config) { c.Telemetry.Metrics.Path = "metrics" }, "telemetry.metrics.path"},
		{"buckets not increasing", func(c *Config) {
			c.Telemetry.Metrics.ParseDurationBuckets = []float64{0.1, 0.1}
		}, "telemetry.metrics.parse_duration_buckets"},
		{"sample ratio", func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 }, "telemetry.tracing.sample_ratio"},
		{"tracing endpoint", func(c *Config) {
			c.Telemetry.Tracing.Enabled = true
			c.Telemetry.Tracing.Endpoint = ""
		}, "telemetry.tracing.endpoint"},
		{"exporter", func(c *Config) { c.Telemetry.Tracing.Exporter = "jaeger" }, "telemetry.tracing.exporter"},
		{"health path", func(c *Config) { c.Telemetry.Health.ReadinessPath = "ready" }, "telemetry.health.readiness_path"},
		{"health timeout", func(c *Config) { c.Telemetry.Health.CheckTimeout = 2 * time.Minute }, "telemetry.health.check_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("Expected error for %s, got %v", tt.wantField, verr.Errors)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if single.Error() != "configuration validation failed: a: bad" {
		t.Errorf("Unexpected message %q", single.Error())
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	if !strings.Contains(multi.Error(), "2 errors") || !strings.Contains(multi.Error(), "  - b: worse") {
		t.Errorf("Unexpected message %q", multi.Error())
	}

	if (ValidationError{}).Error() != "configuration validation failed" {
		t.Error("Unexpected empty message")
	}
}

// ============================================================================
// Singleton
// ============================================================================

func TestSingleton(t *testing.T) {
	resetForTesting()
	t.Cleanup(resetForTesting)

	if GetConfig() != nil {
		t.Fatal("Expected nil config before Initialize")
	}

	path := writeConfig(t, "dispatch:\n  max_results: 2\n")
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if MustGetConfig().Dispatch.MaxResults != 2 {
		t.Errorf("Expected max results 2, got %d", GetConfig().Dispatch.MaxResults)
	}

	// Second Initialize is ignored.
	other := writeConfig(t, "dispatch:\n  max_results: 4\n")
	_ = Initialize(other)
	if GetConfig().Dispatch.MaxResults != 2 {
		t.Error("Expected second Initialize to be ignored")
	}

	var seen atomic.Int64
	OnReload(func(cfg *Config) { seen.Store(int64(cfg.Dispatch.MaxResults)) })
	if err := ReloadConfig(other); err != nil {
		t.Fatalf("ReloadConfig failed: %v", err)
	}
	if GetConfig().Dispatch.MaxResults != 4 || seen.Load() != 4 {
		t.Errorf("Expected reload to 4, got %d (hook %d)", GetConfig().Dispatch.MaxResults, seen.Load())
	}

	bad := writeConfig(t, "dispatch:\n  resolver: nowhere\n")
	if err := ReloadConfig(bad); err == nil {
		t.Error("Expected reload error")
	}
	if GetConfig().Dispatch.MaxResults != 4 {
		t.Error("Expected previous config kept after failed reload")
	}
}

func TestMustGetConfig_Panics(t *testing.T) {
	resetForTesting()
	t.Cleanup(resetForTesting)

	defer func() {
		if recover() == nil {
			t.Error("Expected panic")
		}
	}()
	MustGetConfig()
}
