package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"rapidresq/resq/pkg/ecl"
)

// Span attribute keys for command processing.
const (
	AttrRequestID     = attribute.Key("request.id")
	AttrEmergencyID   = attribute.Key("emergency.id")
	AttrCommandType   = attribute.Key("command.type")
	AttrCommandLength = attribute.Key("command.length")
	AttrOutcomeState  = attribute.Key("outcome.state")

	AttrParseSuccess  = attribute.Key("parse.success")
	AttrParseTokens   = attribute.Key("parse.tokens")
	AttrParseErrors   = attribute.Key("parse.errors")
	AttrParseWarnings = attribute.Key("parse.warnings")

	AttrDispatchAction = attribute.Key("dispatch.action")
	AttrQueueSize      = attribute.Key("queue.size")
)

// HTTP attribute keys, named per the OpenTelemetry HTTP conventions.
const (
	AttrHTTPMethod = attribute.Key("http.request.method")
	AttrHTTPRoute  = attribute.Key("http.route")
	AttrHTTPStatus = attribute.Key("http.response.status_code")
	AttrURLPath    = attribute.Key("url.path")
	AttrUserAgent  = attribute.Key("user_agent.original")
)

// RequestAttributes describes an incoming command.
func RequestAttributes(requestID, command string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrRequestID.String(requestID),
		AttrCommandLength.Int(len(command)),
	}
}

// ParseAttributes summarizes a parse result. The command type is omitted
// when parsing failed.
func ParseAttributes(r *ecl.Result) []attribute.KeyValue {
	if r == nil {
		return nil
	}
	attrs := []attribute.KeyValue{
		AttrParseSuccess.Bool(r.Success),
		AttrParseTokens.Int(r.Metadata.TokenCount),
		AttrParseErrors.Int(r.Diagnostics.TotalErrors()),
		AttrParseWarnings.Int(len(r.Diagnostics.Warnings)),
	}
	if ct := r.CommandType(); ct != "" {
		attrs = append(attrs, AttrCommandType.String(ct))
	}
	return attrs
}

// HTTPSpanOptions returns the start options for a server span.
func HTTPSpanOptions(r *http.Request, route string) []trace.SpanStartOption {
	return []trace.SpanStartOption{
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			AttrHTTPMethod.String(r.Method),
			AttrHTTPRoute.String(route),
			AttrURLPath.String(r.URL.Path),
			AttrUserAgent.String(r.UserAgent()),
		),
	}
}

// SetHTTPStatus records the response status on span.
func SetHTTPStatus(span trace.Span, status int) {
	span.SetAttributes(AttrHTTPStatus.Int(status))
}
