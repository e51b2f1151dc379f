package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rapidresq/resq/pkg/config"
	"rapidresq/resq/pkg/coordinator"
	"rapidresq/resq/pkg/dispatch"
	"rapidresq/resq/pkg/dispatch/resolver"
	"rapidresq/resq/pkg/engine"
	"rapidresq/resq/pkg/telemetry/health"
	"rapidresq/resq/pkg/telemetry/logging"
	"rapidresq/resq/pkg/telemetry/metrics"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.RateLimit.Enabled = false
	cfg.Server.ShutdownTimeout = time.Second
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	store := resolver.NewStatusStore(time.Minute)
	t.Cleanup(store.Stop)

	locations := resolver.NewStatic()
	coord := coordinator.New(coordinator.Options{QueueCapacity: 10, Logger: logging.Discard()})
	eng := engine.New(engine.Options{
		Coordinator: coord,
		Dispatcher: dispatch.New(dispatch.Options{
			Locations: locations,
			Statuses:  store,
			Recorder:  store,
			Fallback:  resolver.FallbackHospitals(),
			Logger:    logging.Discard(),
		}),
		Logger: logging.Discard(),
	})

	checker := health.New(time.Second)
	health.RegisterCoordinatorChecks(checker, coord)

	srv, err := New(cfg, Options{
		Engine:    eng,
		Locations: locations,
		Metrics:   metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry()),
		Health:    checker,
		Version:   health.NewVersionInfo("test", "abc123", "now"),
		Logger:    logging.Discard(),
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, h http.Handler, method, target string, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.RemoteAddr = "192.0.2.1:40000"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var decoded map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
		}
	}
	return w, decoded
}

// ============================================================================
// Construction
// ============================================================================

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, Options{}); err == nil {
		t.Error("Expected error for nil config")
	}
	if _, err := New(testConfig(), Options{}); err == nil {
		t.Error("Expected error for missing engine")
	}
}

// ============================================================================
// Parse
// ============================================================================

func TestParse_Success(t *testing.T) {
	srv := newTestServer(t, testConfig())

	w, body := do(t, srv.Handler(), http.MethodPost, RouteParse,
		`{"command":"ALERT fire at Lahore priority HIGH contact 1122"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body["success"] != true {
		t.Errorf("Expected success true, got %v", body["success"])
	}
	if body["state"] != string(engine.TerminalExecuted) {
		t.Errorf("Expected state %s, got %v", engine.TerminalExecuted, body["state"])
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header")
	}

	conc, ok := body["concurrency"].(map[string]any)
	if !ok {
		t.Fatalf("Expected concurrency block, got %v", body["concurrency"])
	}
	if conc["emergencyId"] == "" || conc["emergencyId"] == nil {
		t.Error("Expected emergencyId")
	}
	if _, ok := conc["queueStatus"].(map[string]any); !ok {
		t.Errorf("Expected queueStatus, got %v", conc["queueStatus"])
	}

	exec, ok := body["execution"].(map[string]any)
	if !ok {
		t.Fatalf("Expected execution block, got %v", body["execution"])
	}
	if exec["action"] != string(dispatch.ActionAlertCreated) {
		t.Errorf("Expected action %s, got %v", dispatch.ActionAlertCreated, exec["action"])
	}
	if body["ast"] == nil {
		t.Error("Expected ast in response")
	}
}

func TestParse_WithoutExecution(t *testing.T) {
	srv := newTestServer(t, testConfig())

	w, body := do(t, srv.Handler(), http.MethodPost, RouteParse,
		`{"command":"HELP medical emergency","execute":false}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if body["state"] != string(engine.TerminalNotExecuted) {
		t.Errorf("Expected state %s, got %v", engine.TerminalNotExecuted, body["state"])
	}
	if _, ok := body["execution"]; ok {
		t.Error("Expected no execution block")
	}
}

func TestParse_BadRequests(t *testing.T) {
	srv := newTestServer(t, testConfig())
	h := srv.Handler()

	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{"missing command", `{}`, "Command text is required"},
		{"empty command", `{"command":"   "}`, "Command text is required"},
		{"non-string command", `{"command":42}`, "Command text is required"},
		{"invalid json", `{"command":`, "Invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := do(t, h, http.MethodPost, RouteParse, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d", w.Code)
			}
			if body["error"] != tt.wantError {
				t.Errorf("Expected error %q, got %v", tt.wantError, body["error"])
			}
			if body["success"] != false {
				t.Errorf("Expected success false, got %v", body["success"])
			}
		})
	}
}

func TestParse_SyntaxErrorGetsSuggestions(t *testing.T) {
	srv := newTestServer(t, testConfig())

	w, body := do(t, srv.Handler(), http.MethodPost, RouteParse, `{"command":"INVALID COMMAND with bad syntax"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if body["success"] != false {
		t.Errorf("Expected success false, got %v", body["success"])
	}
	if s, _ := body["suggestions"].([]any); len(s) == 0 {
		t.Error("Expected suggestions")
	}
	if e, _ := body["examples"].([]any); len(e) != len(failureExamples) {
		t.Errorf("Expected %d examples, got %v", len(failureExamples), body["examples"])
	}
	if _, ok := body["ast"]; ok {
		t.Error("Expected no ast for a failed parse")
	}
}

func TestParse_NonFiniteGPSRejected(t *testing.T) {
	srv := newTestServer(t, testConfig())
	h := srv.Handler()

	for _, command := range []string{"ALERT fire at GPS:NaN,NaN", "ALERT fire at GPS:Inf,0"} {
		t.Run(command, func(t *testing.T) {
			w, body := do(t, h, http.MethodPost, RouteParse, `{"command":"`+command+`"}`)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
			}
			if body["success"] != false {
				t.Errorf("Expected success false, got %v", body["success"])
			}
			diags, _ := body["diagnostics"].(map[string]any)
			lexErrs, _ := diags["lexerErrors"].([]any)
			if len(lexErrs) != 1 {
				t.Fatalf("Expected 1 lexer error, got %v", diags["lexerErrors"])
			}
			if msg, _ := lexErrs[0].(map[string]any)["message"].(string); !strings.Contains(msg, "malformed GPS literal") {
				t.Errorf("Unexpected lexer error %q", msg)
			}
		})
	}
}

func TestParse_BodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxBodyBytes = 16
	srv := newTestServer(t, cfg)

	w, _ := do(t, srv.Handler(), http.MethodPost, RouteParse,
		`{"command":"ALERT fire at Lahore priority HIGH contact 1122"}`)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", w.Code)
	}
}

func TestParse_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, testConfig())

	w, _ := do(t, srv.Handler(), http.MethodGet, RouteParse, "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", w.Code)
	}
}

func TestParse_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.01, Burst: 1, ClientTTL: time.Minute}
	srv := newTestServer(t, cfg)
	h := srv.Handler()

	first, _ := do(t, h, http.MethodPost, RouteParse, `{"command":"HELP fire safety"}`)
	second, body := do(t, h, http.MethodPost, RouteParse, `{"command":"HELP fire safety"}`)

	if first.Code != http.StatusOK {
		t.Errorf("Expected first request 200, got %d", first.Code)
	}
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("Expected second request 429, got %d", second.Code)
	}
	if body["success"] != false {
		t.Errorf("Expected success false, got %v", body["success"])
	}
}

func TestWriteProcessError(t *testing.T) {
	srv := newTestServer(t, testConfig())

	tests := []struct {
		err      error
		expected int
	}{
		{fmt.Errorf("acquire: %w", coordinator.ErrLockTimeout), http.StatusServiceUnavailable},
		{coordinator.ErrTooManyInFlight, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{context.Canceled, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		srv.writeProcessError(w, tt.err)
		if w.Code != tt.expected {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.expected, w.Code)
		}
	}
}

// ============================================================================
// Introspection routes
// ============================================================================

func TestParserInfo(t *testing.T) {
	srv := newTestServer(t, testConfig())

	w, body := do(t, srv.Handler(), http.MethodGet, RouteParserInfo, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	examples, ok := body["examples"].(map[string]any)
	if !ok {
		t.Fatalf("Expected examples map, got %v", body["examples"])
	}
	for _, key := range []string{"alerts", "queries", "status", "help"} {
		if _, ok := examples[key]; !ok {
			t.Errorf("Expected examples[%q]", key)
		}
	}
	if _, ok := body["grammar"].(map[string]any); !ok {
		t.Error("Expected grammar description")
	}
}

func TestParserTest(t *testing.T) {
	srv := newTestServer(t, testConfig())

	w, body := do(t, srv.Handler(), http.MethodGet, RouteParserTest, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	results, _ := body["testResults"].([]any)
	if len(results) != len(engine.SelfTestCommands) {
		t.Errorf("Expected %d results, got %d", len(engine.SelfTestCommands), len(results))
	}
	summary, _ := body["summary"].(map[string]any)
	if summary["totalTests"] != float64(len(engine.SelfTestCommands)) {
		t.Errorf("Unexpected summary %v", summary)
	}
	if srv.engine.Queue().Len() != 0 {
		t.Errorf("Expected self-test to leave the queue empty, got %d", srv.engine.Queue().Len())
	}
}

func TestConcurrencyDemo(t *testing.T) {
	srv := newTestServer(t, testConfig())

	w, body := do(t, srv.Handler(), http.MethodGet, RouteConcurrencyDemo, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	results, _ := body["results"].([]any)
	if len(results) != len(engine.DemoCommands) {
		t.Fatalf("Expected %d results, got %d", len(engine.DemoCommands), len(results))
	}

	ids := make(map[string]bool)
	for i, raw := range results {
		res := raw.(map[string]any)
		if res["requestId"] != float64(i) {
			t.Errorf("Expected requestId %d, got %v", i, res["requestId"])
		}
		if res["command"] != engine.DemoCommands[i] {
			t.Errorf("Expected command %q, got %v", engine.DemoCommands[i], res["command"])
		}
		id, _ := res["emergencyId"].(string)
		if id == "" || ids[id] {
			t.Errorf("Expected unique emergency ID, got %q", id)
		}
		ids[id] = true
	}

	stats, _ := body["stats"].(map[string]any)
	if stats["totalRequests"] != float64(len(engine.DemoCommands)) {
		t.Errorf("Expected totalRequests %d, got %v", len(engine.DemoCommands), stats["totalRequests"])
	}
}

func TestConcurrencyStats(t *testing.T) {
	srv := newTestServer(t, testConfig())
	h := srv.Handler()

	do(t, h, http.MethodPost, RouteParse, `{"command":"STATUS request-12345"}`)
	w, body := do(t, h, http.MethodGet, RouteConcurrencyStats, "")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	stats, _ := body["stats"].(map[string]any)
	if stats["totalRequests"] != float64(1) {
		t.Errorf("Expected totalRequests 1, got %v", stats["totalRequests"])
	}
	if stats["queueLength"] != float64(1) {
		t.Errorf("Expected queueLength 1, got %v", stats["queueLength"])
	}
}

// ============================================================================
// Queue
// ============================================================================

func TestQueueAndDrain(t *testing.T) {
	srv := newTestServer(t, testConfig())
	h := srv.Handler()

	for _, cmd := range []string{"HELP fire safety", "STATUS request-1", "QUERY hospital near Lahore"} {
		do(t, h, http.MethodPost, RouteParse, fmt.Sprintf(`{"command":%q}`, cmd))
	}

	_, body := do(t, h, http.MethodGet, RouteQueue, "")
	if body["size"] != float64(3) {
		t.Fatalf("Expected size 3, got %v", body["size"])
	}
	if body["capacity"] != float64(10) {
		t.Errorf("Expected capacity 10, got %v", body["capacity"])
	}

	w, body := do(t, h, http.MethodPost, RouteQueueDrain+"?max=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	drained, _ := body["drained"].([]any)
	if len(drained) != 2 {
		t.Errorf("Expected 2 drained entries, got %d", len(drained))
	}
	if body["remaining"] != float64(1) {
		t.Errorf("Expected 1 remaining, got %v", body["remaining"])
	}

	w, _ = do(t, h, http.MethodPost, RouteQueueDrain+"?max=-1", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for negative max, got %d", w.Code)
	}
}

// ============================================================================
// Nearby
// ============================================================================

func TestNearby(t *testing.T) {
	srv := newTestServer(t, testConfig())
	h := srv.Handler()

	t.Run("lahore", func(t *testing.T) {
		w, body := do(t, h, http.MethodGet, RouteNearby+"?lat=31.5204&lon=74.3587", "")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		if body["radius"] != float64(defaultNearbyRadius) {
			t.Errorf("Expected default radius, got %v", body["radius"])
		}
		if body["dataSource"] != "local" {
			t.Errorf("Expected dataSource local, got %v", body["dataSource"])
		}
		if hospitals, _ := body["hospitals"].([]any); len(hospitals) == 0 {
			t.Error("Expected Lahore hospitals")
		}
		if services, _ := body["emergencyServices"].([]any); len(services) == 0 {
			t.Error("Expected emergency services")
		}
	})

	t.Run("radius clamped", func(t *testing.T) {
		_, body := do(t, h, http.MethodGet, RouteNearby+"?lat=31.5204&lon=74.3587&radius=100", "")
		if body["radius"] != float64(minNearbyRadius) {
			t.Errorf("Expected radius %d, got %v", minNearbyRadius, body["radius"])
		}
		if body["dataSource"] != "fallback" {
			t.Errorf("Expected dataSource fallback, got %v", body["dataSource"])
		}
	})

	t.Run("outside coverage", func(t *testing.T) {
		_, body := do(t, h, http.MethodGet, RouteNearby+"?lat=51.5&lon=-0.12", "")
		if body["dataSource"] != "none" {
			t.Errorf("Expected dataSource none, got %v", body["dataSource"])
		}
		if hospitals, ok := body["hospitals"].([]any); !ok || len(hospitals) != 0 {
			t.Errorf("Expected empty hospitals, got %v", body["hospitals"])
		}
	})

	t.Run("invalid coordinates", func(t *testing.T) {
		for _, q := range []string{"", "?lat=abc&lon=74", "?lat=95&lon=74", "?lat=31&lon=200"} {
			w, body := do(t, h, http.MethodGet, RouteNearby+q, "")
			if w.Code != http.StatusBadRequest {
				t.Errorf("%q: expected 400, got %d", q, w.Code)
			}
			if body["message"] != "Invalid coordinates" {
				t.Errorf("%q: unexpected body %v", q, body)
			}
		}
	})
}

func TestNearbyRadius(t *testing.T) {
	tests := []struct {
		in       string
		expected int
	}{
		{"", defaultNearbyRadius},
		{"abc", defaultNearbyRadius},
		{"100", minNearbyRadius},
		{"1000", 1000},
		{"999999", maxNearbyRadius},
	}
	for _, tt := range tests {
		if got := nearbyRadius(tt.in); got != tt.expected {
			t.Errorf("nearbyRadius(%q) = %d, want %d", tt.in, got, tt.expected)
		}
	}
}

// ============================================================================
// Telemetry endpoints
// ============================================================================

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig())
	h := srv.Handler()

	do(t, h, http.MethodPost, RouteParse, `{"command":"HELP fire safety"}`)
	w, _ := do(t, h, http.MethodGet, "/metrics", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	out := w.Body.String()
	for _, name := range []string{"rapidresq_http_requests_total", "rapidresq_"} {
		if !strings.Contains(out, name) {
			t.Errorf("Expected metrics output to contain %q", name)
		}
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, testConfig())
	h := srv.Handler()

	for _, path := range []string{"/health", "/ready", "/version"} {
		w, _ := do(t, h, http.MethodGet, path, "")
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, RouteParse, nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Expected Access-Control-Allow-Origin header")
	}
}

// ============================================================================
// Lifecycle
// ============================================================================

func TestServe_ShutsDownOnContext(t *testing.T) {
	srv := newTestServer(t, testConfig())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + RouteParse
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Post(url, "application/json", bytes.NewBufferString(`{"command":"HELP fire safety"}`))
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	if !srv.IsRunning() {
		t.Error("Expected server to be running")
	}
	if srv.Addr() == nil {
		t.Error("Expected listening address")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
	if srv.IsRunning() {
		t.Error("Expected server to be stopped")
	}
}
