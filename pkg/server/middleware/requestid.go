package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"rapidresq/resq/pkg/telemetry/logging"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength bounds client supplied IDs.
const maxRequestIDLength = 128

// RequestIDMiddleware assigns every request an ID, reusing the client's
// X-Request-ID when present. The ID is stored in the context with
// logging.WithRequestID and echoed in the response header.
//
//	handler = RequestIDMiddleware(handler)
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}

		ctx := logging.WithRequestID(r.Context(), requestID)
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID stored in ctx, or "".
func GetRequestID(ctx context.Context) string {
	return logging.GetRequestID(ctx)
}
