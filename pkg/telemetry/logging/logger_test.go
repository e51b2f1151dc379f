package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"rapidresq/resq/pkg/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("Invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

// ============================================================================
// Logger construction
// ============================================================================

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "valid JSON config", config: Config{Level: "info", Format: "json", RedactPII: true}},
		{name: "valid text config", config: Config{Level: "debug", Format: "text"}},
		{name: "valid console config", config: Config{Level: "warn", Format: "console", RedactPII: true}},
		{name: "defaults", config: Config{}},
		{name: "invalid log level", config: Config{Level: "invalid"}, wantErr: true},
		{name: "invalid format", config: Config{Format: "invalid"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Writer = &bytes.Buffer{}
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger == nil {
				t.Error("Expected logger, got nil")
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "warn", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	lines := decodeLines(t, buf)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %s", len(lines), buf.String())
	}
	if lines[0]["msg"] != "warn message" {
		t.Errorf("Expected warn message first, got %v", lines[0]["msg"])
	}
}

func TestLogger_TextFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, _ := New(Config{Format: "text", Writer: buf})
	logger.Info("hello", "command_type", "ALERT")

	out := buf.String()
	if !strings.Contains(out, "msg=hello") || !strings.Contains(out, "command_type=ALERT") {
		t.Errorf("Unexpected text output %q", out)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(&config.LoggingConfig{
		Level:          "debug",
		Format:         "text",
		RedactPII:      true,
		RedactLocation: true,
	})
	if cfg.Level != "debug" || cfg.Format != "text" || !cfg.RedactPII || !cfg.RedactLocation {
		t.Errorf("Unexpected conversion %+v", cfg)
	}
}

// ============================================================================
// Context fields
// ============================================================================

func TestLogger_ContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, _ := New(Config{Writer: buf})

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithEmergencyID(ctx, "EMG-7-1700000000000")
	ctx = WithCommandType(ctx, "ALERT")
	ctx = WithClient(ctx, "10.0.0.1")
	logger.InfoContext(ctx, "processed")

	line := decodeLines(t, buf)[0]
	want := map[string]string{
		"request_id":   "req-1",
		"emergency_id": "EMG-7-1700000000000",
		"command_type": "ALERT",
		"client":       "10.0.0.1",
	}
	for k, v := range want {
		if line[k] != v {
			t.Errorf("Expected %s=%q, got %v", k, v, line[k])
		}
	}
}

func TestLogger_TraceFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, _ := New(Config{Writer: buf})

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.InfoContext(ctx, "traced")
	span.End()

	line := decodeLines(t, buf)[0]
	if line["trace_id"] != span.SpanContext().TraceID().String() {
		t.Errorf("Expected trace_id %s, got %v", span.SpanContext().TraceID(), line["trace_id"])
	}
	if _, ok := line["span_id"]; !ok {
		t.Error("Expected span_id field")
	}
}

func TestContextGetters_Empty(t *testing.T) {
	ctx := context.Background()
	if GetRequestID(ctx) != "" || GetEmergencyID(ctx) != "" || GetCommandType(ctx) != "" || GetClient(ctx) != "" {
		t.Error("Expected empty values from bare context")
	}
	if attrs := contextAttrs(ctx); len(attrs) != 0 {
		t.Errorf("Expected no attrs, got %v", attrs)
	}
}

// ============================================================================
// Redaction through the handler
// ============================================================================

func TestLogger_Redaction(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, _ := New(Config{Writer: buf, RedactPII: true})

	logger.With("caller", "+92-300-7654321").Info("alert for 03211234567",
		"contact", "+92-321-1234567",
		"hotline", "1122",
		"location", "Mall Road Lahore",
		slog.Group("request", slog.String("phone", "+92-333-5556667")),
	)

	line := decodeLines(t, buf)[0]
	if line["contact"] != "***567" {
		t.Errorf("Expected contact masked, got %v", line["contact"])
	}
	if line["caller"] != "***321" {
		t.Errorf("Expected caller masked, got %v", line["caller"])
	}
	if line["hotline"] != "1122" {
		t.Errorf("Expected service number kept, got %v", line["hotline"])
	}
	if line["location"] != "Mall Road Lahore" {
		t.Errorf("Expected location kept outside protected mode, got %v", line["location"])
	}
	if strings.Contains(line["msg"].(string), "03211234567") {
		t.Errorf("Expected phone in message redacted, got %v", line["msg"])
	}
	group, _ := line["request"].(map[string]any)
	if group["phone"] != "***667" {
		t.Errorf("Expected grouped phone masked, got %v", group["phone"])
	}
}

func TestLogger_NoRedaction(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, _ := New(Config{Writer: buf})
	logger.Info("x", "contact", "+92-321-1234567")

	if line := decodeLines(t, buf)[0]; line["contact"] != "+92-321-1234567" {
		t.Errorf("Expected contact unchanged, got %v", line["contact"])
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("Expected discard logger to be disabled")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLevel(%q) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("parseLevel(%q): expected %v, got %v", tt.input, tt.want, got)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    LogFormat
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"", FormatJSON, false},
		{"TEXT", FormatText, false},
		{"console", FormatConsole, false},
		{"xml", FormatJSON, true},
	}
	for _, tt := range tests {
		got, err := parseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseFormat(%q) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("parseFormat(%q): expected %v, got %v", tt.input, tt.want, got)
		}
	}
}
