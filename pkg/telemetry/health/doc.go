// Package health provides liveness, readiness and version endpoints.
//
// # Endpoints
//
//   - /health: the process is running
//   - /ready: every registered check passes (503 otherwise)
//   - /version: version, commit, build time and Go version
//
// Paths come from config.HealthConfig.
//
// # Checks
//
// The server registers these readiness checks:
//
//   - queue: the message queue has room
//   - guard: the parser guard frees up within the check timeout
//   - admission: the in-flight limit, if any, has a free slot
//   - config: a configuration is loaded
//
// Checks run concurrently, each bounded by the configured check timeout.
//
// # Usage
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	health.RegisterCoordinatorChecks(checker, coord)
//	checker.RegisterCheck("config", health.ConfigCheck(config.GetConfig))
//
//	health.Register(mux, &cfg.Telemetry.Health, checker,
//	    health.NewVersionInfo(version, commit, buildTime))
package health
