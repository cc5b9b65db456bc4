// Package trace logs every HTTP request and records its latency under the
// matched route pattern.
package trace

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"betledger/internal/log"
	"betledger/internal/metrics"
)

// Middleware handles request tracing and logging. It expects chi's
// RequestID and RealIP middleware to run first.
type Middleware struct {
	logger  *log.Logger
	http    *log.HTTPLogger
	metrics *metrics.Metrics
}

// New creates the middleware. m may be nil.
func New(logger *log.Logger, m *metrics.Metrics) *Middleware {
	return &Middleware{logger: logger, http: log.NewHTTPLogger(logger), metrics: m}
}

// Handler returns HTTP middleware for request tracing.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := GetRequestID(r.Context())

		// Request-scoped logger for handlers and services.
		ctx := log.WithLogger(r.Context(), m.logger.With(log.FieldRequestID, requestID))
		r = r.WithContext(ctx)

		m.http.Start(ctx, r, requestID, r.RemoteAddr)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		m.http.End(ctx, r, requestID, status, elapsed.Milliseconds())
		m.metrics.ObserveHTTP(RoutePattern(r), r.Method, status, elapsed)
	})
}

// RoutePattern returns the chi pattern that served r, or "unmatched" so that
// unknown paths do not blow up metric cardinality.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	return chimiddleware.GetReqID(ctx)
}
