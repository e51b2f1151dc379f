package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"rapidresq/resq/pkg/config"
)

// CORSConfig contains configuration for CORS middleware.
type CORSConfig struct {
	Enabled bool

	// AllowedOrigins lists allowed origins; "*" allows any.
	AllowedOrigins []string

	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string

	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int
}

// DefaultCORSConfig allows any origin to call the emergency API.
func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		Enabled:        true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader, "traceparent", "tracestate"},
		ExposedHeaders: []string{RequestIDHeader, "X-Trace-ID", "Retry-After"},
		MaxAge:         3600,
	}
}

// CORSFromConfig builds the middleware settings from server configuration.
func CORSFromConfig(cfg *config.CORSConfig) *CORSConfig {
	c := DefaultCORSConfig()
	c.Enabled = cfg.Enabled
	if len(cfg.AllowedOrigins) > 0 {
		c.AllowedOrigins = cfg.AllowedOrigins
	}
	return c
}

// CORSMiddleware adds Cross-Origin Resource Sharing headers and answers
// preflight requests with 204.
//
//	handler = CORSMiddleware(DefaultCORSConfig())(handler)
func CORSMiddleware(cfg *CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			switch {
			case origin != "" && slices.Contains(cfg.AllowedOrigins, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			case slices.Contains(cfg.AllowedOrigins, "*"):
				w.Header().Set("Access-Control-Allow-Origin", "*")
			default:
				origin = ""
			}
			if origin != "" && len(cfg.ExposedHeaders) > 0 {
				w.Header().Set("Access-Control-Expose-Headers", strings.Join(cfg.ExposedHeaders, ", "))
			}

			if r.Method == http.MethodOptions {
				if len(cfg.AllowedMethods) > 0 {
					w.Header().Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowedMethods, ", "))
				}
				if len(cfg.AllowedHeaders) > 0 {
					w.Header().Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowedHeaders, ", "))
				}
				if cfg.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
