package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// EmergencyIDKey is the context key for minted emergency IDs.
	EmergencyIDKey contextKey = "emergency_id"

	// CommandTypeKey is the context key for the parsed command type.
	CommandTypeKey contextKey = "command_type"

	// ClientKey is the context key for the calling client (remote address).
	ClientKey contextKey = "client"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithEmergencyID adds an emergency ID to the context.
func WithEmergencyID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, EmergencyIDKey, id)
}

// GetEmergencyID retrieves the emergency ID from the context.
func GetEmergencyID(ctx context.Context) string {
	if id, ok := ctx.Value(EmergencyIDKey).(string); ok {
		return id
	}
	return ""
}

// WithCommandType adds the command type to the context.
func WithCommandType(ctx context.Context, commandType string) context.Context {
	return context.WithValue(ctx, CommandTypeKey, commandType)
}

// GetCommandType retrieves the command type from the context.
func GetCommandType(ctx context.Context) string {
	if ct, ok := ctx.Value(CommandTypeKey).(string); ok {
		return ct
	}
	return ""
}

// WithClient adds the client address to the context.
func WithClient(ctx context.Context, client string) context.Context {
	return context.WithValue(ctx, ClientKey, client)
}

// GetClient retrieves the client address from the context.
func GetClient(ctx context.Context) string {
	if client, ok := ctx.Value(ClientKey).(string); ok {
		return client
	}
	return ""
}

// contextAttrs extracts the known fields from ctx, including the active
// trace and span IDs.
func contextAttrs(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	var attrs []slog.Attr
	if v := GetRequestID(ctx); v != "" {
		attrs = append(attrs, slog.String(string(RequestIDKey), v))
	}
	if v := GetEmergencyID(ctx); v != "" {
		attrs = append(attrs, slog.String(string(EmergencyIDKey), v))
	}
	if v := GetCommandType(ctx); v != "" {
		attrs = append(attrs, slog.String(string(CommandTypeKey), v))
	}
	if v := GetClient(ctx); v != "" {
		attrs = append(attrs, slog.String(string(ClientKey), v))
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return attrs
}
