package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trustdot/reputation/internal/domain"
	apperrors "github.com/trustdot/reputation/pkg/errors"
	pkgkafka "github.com/trustdot/reputation/pkg/kafka"
	"github.com/trustdot/reputation/pkg/logger"
)

// Recomputer re-derives a vendor's aggregate from its full review set.
type Recomputer interface {
	RecomputeAggregate(ctx context.Context, vendorID string) (domain.Aggregate, error)
}

// ScoreRefresher re-runs the aggregate recompute for every review.created
// event so a write that failed inline is corrected without waiting for the
// next submission.
type ScoreRefresher struct {
	recomputer Recomputer
	logger     *slog.Logger
}

// NewScoreRefresher creates a new score refresh handler.
func NewScoreRefresher(recomputer Recomputer, logger *slog.Logger) *ScoreRefresher {
	return &ScoreRefresher{
		recomputer: recomputer,
		logger:     logger,
	}
}

// HandleReviewCreated processes review.created events. Only retryable
// failures are returned, so the consumer retries and eventually dead-letters
// them. Anything else (missing vendor, bad payload) is dropped.
func (s *ScoreRefresher) HandleReviewCreated(ctx context.Context, event *pkgkafka.Event) error {
	var data ReviewCreatedData
	if err := event.UnmarshalData(&data); err != nil {
		s.logger.WarnContext(ctx, "dropping malformed review.created event",
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if data.VendorID == "" {
		s.logger.WarnContext(ctx, "dropping review.created event without vendor",
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	ctx = logger.WithVendorID(ctx, data.VendorID)
	if event.CorrelationID != "" {
		ctx = logger.WithCorrelationID(ctx, event.CorrelationID)
	}

	agg, err := s.recomputer.RecomputeAggregate(ctx, data.VendorID)
	if err != nil {
		if !apperrors.IsRetryable(err) {
			s.logger.WarnContext(ctx, "skipping score refresh",
				slog.String("vendor_id", data.VendorID),
				slog.String("error", err.Error()),
			)
			return nil
		}
		return fmt.Errorf("refresh score for vendor %s: %w", data.VendorID, err)
	}

	s.logger.InfoContext(ctx, "vendor score refreshed",
		slog.String("vendor_id", data.VendorID),
		slog.String("review_id", data.ReviewID),
		slog.Int("trust_score", agg.TrustScore),
	)
	return nil
}
