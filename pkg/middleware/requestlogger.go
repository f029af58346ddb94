package middleware

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trustdot/reputation/pkg/logger"
)

// SessionIDHeader carries the client's anonymous session identifier.
const SessionIDHeader = "X-Session-ID"

// RequestLogger stores a request-scoped logger in the context, enriched with
// correlation_id, session_id, trace_id and span_id. Mount it after
// RequestLogging and Tracing.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if sid := r.Header.Get(SessionIDHeader); sid != "" {
				ctx = logger.WithSessionID(ctx, sid)
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// VendorScope tags the context and the request logger with the {param} URL
// parameter as vendor_id. Mount it inside a route that declares param.
func VendorScope(param string, base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, param)
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := logger.WithVendorID(r.Context(), id)
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
