// Package middleware provides the HTTP middleware of the RapidResQ API.
//
// # Chain
//
// The server applies three middlewares around the whole mux, outermost
// first:
//
//  1. Recovery: converts panics into 500 responses
//  2. RequestID: assigns or propagates X-Request-ID
//  3. CORS: cross-origin headers and preflight replies
//
// Each API route is then wrapped, outermost first, in tracing (package
// tracing), Logging (completion log line and HTTP metrics), RateLimit
// (per-client token buckets from golang.org/x/time/rate) and Timeout
// (bounds the request context).
//
// Errors are written as JSON:
//
//	{"success": false, "error": "Too Many Requests"}
package middleware
