package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// responseWriter records the status code written by the handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// RequestRecorder receives one observation per completed request.
type RequestRecorder interface {
	RecordHTTPRequest(route, method string, status int, d time.Duration)
}

// LoggingMiddleware logs each request on completion at a level derived from
// the status code, and reports it to rec when rec is non-nil. route is the
// registered pattern, used instead of the raw path to keep labels bounded.
//
//	{"level":"INFO","msg":"request completed","method":"POST","route":"/api/emergency/parse",
//	 "status":200,"latency_ms":12,"request_id":"9b2f..."}
func LoggingMiddleware(logger *slog.Logger, rec RequestRecorder, route string) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)
			ctx := r.Context()

			logger.DebugContext(ctx, "request started",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			next.ServeHTTP(rw, r)

			latency := time.Since(start)
			if rec != nil {
				rec.RecordHTTPRequest(route, r.Method, rw.statusCode, latency)
			}

			level := slog.LevelInfo
			if rw.statusCode >= 500 {
				level = slog.LevelError
			} else if rw.statusCode >= 400 {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "request completed",
				"method", r.Method,
				"route", route,
				"path", r.URL.Path,
				"status", rw.statusCode,
				"latency_ms", latency.Milliseconds(),
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		})
	}
}
