// Package logging provides structured logging with caller-detail redaction.
//
// # Overview
//
// The logging package builds a log/slog logger with:
//   - JSON, text, and console formats
//   - Redaction of caller phone numbers, emails and bearer tokens
//   - Optional masking of GPS coordinates and locations (protected mode)
//   - Context fields: request_id, emergency_id, command_type, client and
//     the active OpenTelemetry trace_id/span_id
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:     "info",
//	    Format:    "json",
//	    RedactPII: true,
//	})
//
//	ctx = logging.WithRequestID(ctx, "3f2a...")
//	logger.InfoContext(ctx, "command parsed",
//	    "contact", "+92-321-1234567", // logged as ***567
//	)
//
// # Redaction
//
// Values under keys containing contact, phone or caller keep only their last
// three digits; short service numbers (15, 1122) are left intact. Free-text
// values are scanned for Pakistani mobile numbers and emails.
package logging
