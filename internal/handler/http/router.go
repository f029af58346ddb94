package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trustdot/reputation/internal/service"
	"github.com/trustdot/reputation/pkg/health"
	"github.com/trustdot/reputation/pkg/middleware"
)

// RouterConfig carries the HTTP-layer settings that are not service state.
type RouterConfig struct {
	ServiceName     string
	CORS            middleware.CORSConfig
	PprofCIDRs      []string
	DefaultPageSize int
	MaxPageSize     int
	// WriteRateLimit throttles review submission, recompute and upvotes per
	// client IP. A zero RPS disables it.
	WriteRateLimit middleware.RateLimitConfig
}

// Services groups the services the API exposes.
type Services struct {
	Reviews    *service.ReviewService
	Upvotes    *service.UpvoteService
	Profiles   *service.ProfileService
	Aggregator *service.Aggregator
}

// NewRouter creates a chi router with all reputation routes registered.
func NewRouter(svc Services, healthHandler *health.Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(cfg.CORS))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if len(cfg.PprofCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)
	}

	reviewHandler := NewReviewHandler(svc.Reviews, cfg.DefaultPageSize, cfg.MaxPageSize, logger)
	vendorHandler := NewVendorHandler(svc.Profiles, svc.Aggregator, logger)
	upvoteHandler := NewUpvoteHandler(svc.Upvotes, cfg.MaxPageSize, logger)
	writeLimit := middleware.RateLimit(cfg.WriteRateLimit, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/vendors/{vendorId}", func(r chi.Router) {
			r.Use(middleware.VendorScope("vendorId", logger))

			r.With(writeLimit).Post("/reviews", reviewHandler.SubmitReview)
			r.With(writeLimit).Post("/recompute", vendorHandler.RecomputeAggregate)

			// Computed views are derived on every read.
			r.Group(func(r chi.Router) {
				r.Use(middleware.NoStore())
				r.Get("/reviews", reviewHandler.ListReviews)
				r.Get("/reviews/analytics", reviewHandler.GetAnalytics)
				r.Get("/profile", vendorHandler.GetProfile)
			})
		})

		r.With(writeLimit).Post("/reviews/{reviewId}/upvotes", upvoteHandler.Upvote)
		r.With(middleware.NoStore()).Get("/upvotes", upvoteHandler.CountUpvotes)
	})

	return r
}
