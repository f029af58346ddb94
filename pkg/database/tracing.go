package database

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/trustdot/reputation/pkg/database"

type slowQuerySettings struct {
	threshold time.Duration
	logger    *slog.Logger
}

var slowQuery atomic.Pointer[slowQuerySettings]

// SetSlowQueryLogging logs queries slower than threshold as warnings.
// A zero threshold or nil logger turns it off.
func SetSlowQueryLogging(threshold time.Duration, logger *slog.Logger) {
	if threshold <= 0 || logger == nil {
		slowQuery.Store(nil)
		return
	}
	slowQuery.Store(&slowQuerySettings{threshold: threshold, logger: logger})
}

// TraceQuery starts a client span for a database call and returns a finisher:
//
//	ctx, end := database.TraceQuery(ctx, "ListReviews", listReviewsSQL)
//	defer func() { end(err) }()
func TraceQuery(ctx context.Context, operation, statement string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", operation),
			attribute.String("db.statement", statement),
		),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		cfg := slowQuery.Load()
		if cfg == nil {
			return
		}
		elapsed := time.Since(start)
		if elapsed < cfg.threshold {
			return
		}
		attrs := []any{
			slog.String("operation", operation),
			slog.String("statement", statement),
			slog.Duration("duration", elapsed),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		cfg.logger.WarnContext(ctx, "slow query detected", attrs...)
	}
}
