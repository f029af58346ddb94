package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	return out
}

func sampledSpanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	if err != nil {
		t.Fatalf("trace id: %v", err)
	}
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	if err != nil {
		t.Fatalf("span id: %v", err)
	}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestNewWithWriter_ServiceField(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("reputation", "info", &buf)
	l.Info("boot")

	out := decodeLine(t, &buf)
	if got := out["service"]; got != "reputation" {
		t.Errorf("service = %v, want %q", got, "reputation")
	}
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("reputation", "warn", &buf)
	l.Info("dropped")

	if buf.Len() != 0 {
		t.Errorf("info line written at warn level: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithContext_CorrelationID(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("test", "info", &buf)

	ctx := WithCorrelationID(context.Background(), "req-123")
	WithContext(ctx, l).Info("hello")

	out := decodeLine(t, &buf)
	if got := out["correlation_id"]; got != "req-123" {
		t.Errorf("correlation_id = %v, want %q", got, "req-123")
	}
}

func TestWithContext_NoSpan(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("test", "info", &buf)

	WithContext(context.Background(), l).Info("no span")

	out := decodeLine(t, &buf)
	for _, key := range []string{"trace_id", "span_id", "vendor_id", "session_id"} {
		if _, ok := out[key]; ok {
			t.Errorf("%s should not be present when not in context", key)
		}
	}
}

func TestWithContext_WithValidSpan(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("test", "info", &buf)

	WithContext(sampledSpanContext(t), l).Info("with span")

	out := decodeLine(t, &buf)
	if got := out["trace_id"]; got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace_id = %v, want %q", got, "4bf92f3577b34da6a3ce929d0e0e4736")
	}
	if got := out["span_id"]; got != "00f067aa0ba902b7" {
		t.Errorf("span_id = %v, want %q", got, "00f067aa0ba902b7")
	}
}

func TestVendorAndSessionFromContext(t *testing.T) {
	ctx := context.Background()
	if VendorIDFromContext(ctx) != "" || SessionIDFromContext(ctx) != "" {
		t.Fatal("empty context should yield empty ids")
	}

	ctx = WithVendorID(ctx, "v-42")
	ctx = WithSessionID(ctx, "sess-9")
	if got := VendorIDFromContext(ctx); got != "v-42" {
		t.Errorf("VendorIDFromContext = %q, want %q", got, "v-42")
	}
	if got := SessionIDFromContext(ctx); got != "sess-9" {
		t.Errorf("SessionIDFromContext = %q, want %q", got, "sess-9")
	}
}

func TestFromContext_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("test", "info", &buf)

	ctx := NewContext(context.Background(), l)
	if got := FromContext(ctx); got != l {
		t.Error("FromContext should return the logger stored via NewContext")
	}
}

func TestFromContext_WithoutLogger(t *testing.T) {
	if got := FromContext(context.Background()); got == nil {
		t.Error("FromContext should return a non-nil fallback logger")
	}
}

func TestWithContext_AllFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("test", "info", &buf)

	ctx := sampledSpanContext(t)
	ctx = WithCorrelationID(ctx, "corr-all")
	ctx = WithVendorID(ctx, "vendor-all")
	ctx = WithSessionID(ctx, "session-all")

	WithContext(ctx, l).Info("all fields")

	out := decodeLine(t, &buf)
	want := map[string]string{
		"correlation_id": "corr-all",
		"vendor_id":      "vendor-all",
		"session_id":     "session-all",
		"trace_id":       "4bf92f3577b34da6a3ce929d0e0e4736",
		"span_id":        "00f067aa0ba902b7",
	}
	for key, val := range want {
		if got := out[key]; got != val {
			t.Errorf("%s = %v, want %q", key, got, val)
		}
	}
}
