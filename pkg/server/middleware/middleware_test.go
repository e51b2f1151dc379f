package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"rapidresq/resq/pkg/config"
	"rapidresq/resq/pkg/telemetry/logging"
)

type recordedRequest struct {
	route  string
	method string
	status int
}

type fakeRecorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (f *fakeRecorder) RecordHTTPRequest(route, method string, status int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{route, method, status})
}

// ============================================================================
// Logging
// ============================================================================

func TestLoggingMiddleware_RecordsStatus(t *testing.T) {
	rec := &fakeRecorder{}
	handler := LoggingMiddleware(logging.Discard(), rec, "/api/emergency/parse")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.WriteHeader(http.StatusOK)
		}),
	)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/emergency/parse", nil))

	if len(rec.requests) != 1 {
		t.Fatalf("Expected 1 recorded request, got %d", len(rec.requests))
	}
	got := rec.requests[0]
	if got.route != "/api/emergency/parse" || got.method != http.MethodPost || got.status != http.StatusBadRequest {
		t.Errorf("Unexpected record %+v", got)
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected first status to win, got %d", w.Code)
	}
}

func TestLoggingMiddleware_ImplicitOK(t *testing.T) {
	rec := &fakeRecorder{}
	handler := LoggingMiddleware(logging.Discard(), rec, "/x")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}),
	)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	if rec.requests[0].status != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.requests[0].status)
	}
}

func TestLoggingMiddleware_NilRecorder(t *testing.T) {
	handler := LoggingMiddleware(logging.Discard(), nil, "/x")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}

// ============================================================================
// Timeout
// ============================================================================

func TestTimeoutMiddleware(t *testing.T) {
	var deadline time.Time
	var ok bool
	handler := TimeoutMiddleware(50 * time.Millisecond)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deadline, ok = r.Context().Deadline()
		}),
	)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !ok {
		t.Fatal("Expected request context to carry a deadline")
	}
	if time.Until(deadline) > 50*time.Millisecond {
		t.Errorf("Expected deadline within 50ms, got %v", time.Until(deadline))
	}
}

func TestTimeoutMiddleware_Disabled(t *testing.T) {
	handler := TimeoutMiddleware(0)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Deadline(); ok {
				t.Error("Expected no deadline")
			}
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background())
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

// ============================================================================
// Rate limiting
// ============================================================================

func TestRateLimiter_RefusesBeyondBurst(t *testing.T) {
	refused := 0
	rl := NewRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 1,
		Burst:             2,
		ClientTTL:         time.Minute,
	}, func() { refused++ }, logging.Discard())
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodPost, "/api/emergency/parse", nil)
		req.RemoteAddr = "10.0.0.1:40000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes[i] = w.Code

		if i == 2 {
			if w.Header().Get("Retry-After") == "" {
				t.Error("Expected Retry-After header")
			}
			if got := w.Header().Get("X-RateLimit-Burst"); got != "2" {
				t.Errorf("Expected X-RateLimit-Burst 2, got %q", got)
			}
		}
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected [200 200 429], got %v", codes)
	}
	if refused != 1 {
		t.Errorf("Expected 1 refusal callback, got %d", refused)
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1}, nil, logging.Discard())
	defer rl.Stop()

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1", "10.0.0.1:2"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		want := http.StatusOK
		if addr == "10.0.0.1:2" {
			want = http.StatusTooManyRequests
		}
		if w.Code != want {
			t.Errorf("%s: expected %d, got %d", addr, want, w.Code)
		}
	}

	if rl.Clients() != 2 {
		t.Errorf("Expected 2 tracked clients, got %d", rl.Clients())
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remote   string
		expected string
	}{
		{"192.168.1.10:5000", "192.168.1.10"},
		{"[::1]:5000", "::1"},
		{"no-port", "no-port"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		if got := ClientIP(req); got != tt.expected {
			t.Errorf("ClientIP(%q) = %q, want %q", tt.remote, got, tt.expected)
		}
	}
}
