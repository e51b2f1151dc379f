// Package config provides configuration management for the RapidResQ
// command processor.
//
// Configuration is read from YAML, decoded on top of Default(), and may be
// overridden by environment variables before validation.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfig("resq.yaml")
//	cfg, err := config.LoadConfigWithEnvOverrides("resq.yaml")
//	cfg, err := config.LoadConfigWithEnvOverrides("") // defaults + env
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention RESQ_SECTION_FIELD:
//
//   - RESQ_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - RESQ_CONCURRENCY_QUEUE_CAPACITY overrides concurrency.queue_capacity
//   - RESQ_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Hot Reload
//
// A Watcher reloads the global configuration when the file changes.
// Components that can apply new settings at runtime register with OnReload.
//
// # Example Configuration
//
//	parser:
//	  max_length: 500
//
//	concurrency:
//	  queue_capacity: 100
//	  lock_timeout: 5s
//	  report_schedule: "@every 15s"
//
//	dispatch:
//	  resolver: static
//	  cache_ttl: 5m
//
//	server:
//	  listen_address: "127.0.0.1:5000"
//	  rate_limit:
//	    requests_per_second: 10
//	    burst: 20
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
//	    redact_pii: true
package config
