package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/trustdot/reputation/internal/domain"
	"github.com/trustdot/reputation/internal/repository"
	apperrors "github.com/trustdot/reputation/pkg/errors"
)

// Aggregator is the only writer of vendor aggregates. Every run is a full
// recomputation from the vendor's complete review set, so running it twice
// with no new reviews writes the same values.
//
// Concurrent runs for one vendor are not serialized: each reads, computes
// and writes independently and the last write wins. The next review
// submission corrects any aggregate that missed a concurrent review.
type Aggregator struct {
	reviews repository.ReviewRepository
	vendors repository.VendorRepository
	logger  *slog.Logger
}

// NewAggregator creates a new aggregator.
func NewAggregator(reviews repository.ReviewRepository, vendors repository.VendorRepository, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		reviews: reviews,
		vendors: vendors,
		logger:  logger,
	}
}

// RecomputeAggregate re-derives and stores the vendor's aggregate. A failed
// read aborts before anything is written, leaving the previous aggregate in
// place.
func (a *Aggregator) RecomputeAggregate(ctx context.Context, vendorID string) (domain.Aggregate, error) {
	if strings.TrimSpace(vendorID) == "" {
		return domain.Aggregate{}, apperrors.InvalidInput("vendor_id is required")
	}

	if _, err := a.vendors.Get(ctx, vendorID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			recomputesTotal.WithLabelValues("not_found").Inc()
			return domain.Aggregate{}, apperrors.NotFound("vendor", vendorID)
		}
		recomputesTotal.WithLabelValues("read_failed").Inc()
		return domain.Aggregate{}, apperrors.Transient("read vendor", err)
	}

	stats, err := a.reviews.Stats(ctx, vendorID)
	if err != nil {
		recomputesTotal.WithLabelValues("read_failed").Inc()
		return domain.Aggregate{}, apperrors.Transient("read reviews", err)
	}

	agg, err := domain.ComputeAggregate(stats)
	if err != nil {
		recomputesTotal.WithLabelValues("read_failed").Inc()
		return domain.Aggregate{}, apperrors.Internal(err)
	}

	if err := a.vendors.UpdateAggregate(ctx, vendorID, agg); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			recomputesTotal.WithLabelValues("not_found").Inc()
			return domain.Aggregate{}, apperrors.NotFound("vendor", vendorID)
		}
		recomputesTotal.WithLabelValues("write_failed").Inc()
		return domain.Aggregate{}, apperrors.Transient("write aggregate", err)
	}

	recomputesTotal.WithLabelValues("updated").Inc()
	a.logger.InfoContext(ctx, "vendor aggregate recomputed",
		slog.String("vendor_id", vendorID),
		slog.Int("total_jobs", agg.TotalJobs),
		slog.Float64("avg_rating", agg.AvgRating),
		slog.Int("trust_score", agg.TrustScore),
	)
	return agg, nil
}
