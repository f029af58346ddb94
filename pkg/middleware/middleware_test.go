package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/trustdot/reputation/pkg/logger"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ---------------------------------------------------------------------------
// RequestLogging
// ---------------------------------------------------------------------------

func TestRequestLogging_GeneratesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	var seen string
	h := RequestLogging(slog.New(slog.NewJSONHandler(&buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/vendors/v/reviews", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(CorrelationIDHeader))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, float64(http.StatusCreated), line["status"])
	assert.Equal(t, seen, line["correlation_id"])
}

func TestRequestLogging_KeepsIncomingCorrelationID(t *testing.T) {
	h := RequestLogging(discardLogger())(http.HandlerFunc(okHandler))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationIDHeader, "corr-abc")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "corr-abc", rec.Header().Get(CorrelationIDHeader))
}

// ---------------------------------------------------------------------------
// Recovery
// ---------------------------------------------------------------------------

func TestRecovery_ReturnsEnvelope(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"INTERNAL_ERROR","message":"an internal error occurred"}}`, rec.Body.String())
}

// ---------------------------------------------------------------------------
// RequestLogger / VendorScope
// ---------------------------------------------------------------------------

func TestRequestLogger_EnrichesWithSession(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	h := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).InfoContext(r.Context(), "inside")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionIDHeader, "sess-1")
	req = req.WithContext(logger.WithCorrelationID(req.Context(), "corr-1"))

	h.ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "sess-1", line["session_id"])
	assert.Equal(t, "corr-1", line["correlation_id"])
}

func TestVendorScope_TagsVendorID(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	var vendorID string

	r := chi.NewRouter()
	r.Route("/vendors/{vendorId}", func(r chi.Router) {
		r.Use(VendorScope("vendorId", base))
		r.Get("/profile", func(w http.ResponseWriter, r *http.Request) {
			vendorID = logger.VendorIDFromContext(r.Context())
			logger.FromContext(r.Context()).Info("profile")
		})
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/vendors/v-77/profile", nil))

	assert.Equal(t, "v-77", vendorID)
	assert.Contains(t, buf.String(), `"vendor_id":"v-77"`)
}

// ---------------------------------------------------------------------------
// PrometheusMetrics
// ---------------------------------------------------------------------------

func TestPrometheusMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("metrics-test"))
	r.Get("/reviews/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/reviews/"+id, nil))
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("metrics-test", http.MethodGet, "/reviews/{id}", "404"))
	assert.Equal(t, float64(3), got)
	assert.Equal(t, float64(0), testutil.ToFloat64(httpRequestsInFlight.WithLabelValues("metrics-test")))
}

// ---------------------------------------------------------------------------
// Tracing
// ---------------------------------------------------------------------------

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return exporter
}

func TestTracing_NamesSpanByRoute(t *testing.T) {
	exporter := setupTestTracer(t)

	r := chi.NewRouter()
	r.Use(Tracing("reputation"))
	r.Get("/vendors/{vendorId}/profile", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	req := httptest.NewRequest(http.MethodGet, "/vendors/v-1/profile", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /vendors/{vendorId}/profile", spans[0].Name)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.NotEmpty(t, rec.Header().Get("traceparent"))
}

// ---------------------------------------------------------------------------
// CORS / cache
// ---------------------------------------------------------------------------

func TestCORS_Development(t *testing.T) {
	h := CORS(DefaultCORSConfig())(http.HandlerFunc(okHandler))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), SessionIDHeader)
}

func TestCORS_Allowlist(t *testing.T) {
	h := CORS(CORSConfig{AllowedOrigins: []string{"https://trustdot.example"}, Environment: "production"})(http.HandlerFunc(okHandler))

	for origin, want := range map[string]string{
		"https://trustdot.example": "https://trustdot.example",
		"https://evil.example":     "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Header().Get("Access-Control-Allow-Origin"), origin)
		assert.Equal(t, "Origin", rec.Header().Get("Vary"))
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	h := CORS(DefaultCORSConfig())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/reviews/r/upvotes", nil)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called)
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
}

func TestNoStore(t *testing.T) {
	h := NoStore()(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Empty(t, rec.Header().Get("Cache-Control"))
}

// ---------------------------------------------------------------------------
// IPAllowlist
// ---------------------------------------------------------------------------

func TestIPAllowlist(t *testing.T) {
	h := IPAllowlist([]string{"10.0.0.0/8", "::1/128", "garbage"}, discardLogger())(http.HandlerFunc(okHandler))

	tests := map[string]int{
		"10.1.2.3:5555":  http.StatusOK,
		"[::1]:5555":     http.StatusOK,
		"192.168.1.1:80": http.StatusForbidden,
		"not-an-ip":      http.StatusForbidden,
		"10.200.0.1":     http.StatusOK,
	}
	for addr, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, addr)
	}
}

func TestRegisterPprof_DeniesOutsideAllowlist(t *testing.T) {
	r := chi.NewRouter()
	RegisterPprof(r, []string{"127.0.0.1/32"}, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
