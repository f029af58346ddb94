package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"github.com/trustdot/reputation/internal/domain"
	"github.com/trustdot/reputation/internal/repository"
	"github.com/trustdot/reputation/pkg/breaker"
	apperrors "github.com/trustdot/reputation/pkg/errors"
)

// UpvoteCounts is a tally plus whether it was served degraded. Degraded
// tallies report zero votes and no prior vote for every id.
type UpvoteCounts struct {
	domain.UpvoteTally
	Degraded bool `json:"degraded"`
}

// UpvoteService enforces one upvote per (review, session). The session ID
// is asserted by the client and is only a best-effort uniqueness key.
type UpvoteService struct {
	reviews repository.ReviewRepository
	upvotes repository.UpvoteRepository
	tallies *breaker.Breaker[domain.UpvoteTally]
	events  EventPublisher
	logger  *slog.Logger
}

// NewUpvoteService creates a new upvote service. Tally reads go through a
// circuit breaker configured by cbCfg.
func NewUpvoteService(
	reviews repository.ReviewRepository,
	upvotes repository.UpvoteRepository,
	cbCfg breaker.Config,
	events EventPublisher,
	logger *slog.Logger,
) *UpvoteService {
	return &UpvoteService{
		reviews: reviews,
		upvotes: upvotes,
		tallies: breaker.New[domain.UpvoteTally](cbCfg, logger),
		events:  events,
		logger:  logger,
	}
}

// Upvote records one vote for the session. A repeat vote is reported as
// AlreadyVoted, not as an error.
func (s *UpvoteService) Upvote(ctx context.Context, reviewID, sessionID string) (*domain.UpvoteResult, error) {
	if strings.TrimSpace(reviewID) == "" {
		return nil, apperrors.InvalidInput("review_id is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	review, err := s.reviews.Get(ctx, reviewID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("review", reviewID)
		}
		return nil, apperrors.Transient("read review", err)
	}

	result := &domain.UpvoteResult{ReviewID: reviewID}
	if err := s.upvotes.Insert(ctx, reviewID, sessionID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAlreadyExists):
			result.AlreadyVoted = true
		case errors.Is(err, apperrors.ErrNotFound):
			return nil, apperrors.NotFound("review", reviewID)
		default:
			return nil, apperrors.Transient("record upvote", err)
		}
	}

	if result.AlreadyVoted {
		upvotesTotal.WithLabelValues("duplicate").Inc()
		s.logger.DebugContext(ctx, "duplicate upvote ignored", slog.String("review_id", reviewID))
	} else {
		upvotesTotal.WithLabelValues("recorded").Inc()
		s.logger.InfoContext(ctx, "upvote recorded",
			slog.String("review_id", reviewID),
			slog.String("vendor_id", review.VendorID),
		)
		if s.events != nil {
			if err := s.events.PublishReviewUpvoted(ctx, reviewID, review.VendorID); err != nil {
				s.logger.ErrorContext(ctx, "failed to publish review.upvoted event",
					slog.String("review_id", reviewID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	counts := s.CountUpvotes(ctx, []string{reviewID}, sessionID)
	result.Count = counts.Counts[reviewID]
	return result, nil
}

// CountUpvotes tallies votes for reviewIDs in one batched read. Store
// failures never surface: the tally degrades to zero counts.
func (s *UpvoteService) CountUpvotes(ctx context.Context, reviewIDs []string, sessionID string) UpvoteCounts {
	ids := lo.Uniq(lo.Compact(reviewIDs))
	if len(ids) == 0 {
		return UpvoteCounts{UpvoteTally: domain.NewUpvoteTally(nil)}
	}

	degraded := false
	guarded := s.tallies.WithFallback(func(ctx context.Context, err error) (domain.UpvoteTally, error) {
		degraded = true
		upvoteTallyDegradedTotal.Inc()
		s.logger.WarnContext(ctx, "upvote tally unavailable, showing zero counts",
			slog.Int("review_count", len(ids)),
			slog.String("error", err.Error()),
		)
		return domain.NewUpvoteTally(ids), nil
	})

	tally, _ := guarded.Execute(ctx, func(ctx context.Context) (domain.UpvoteTally, error) {
		return s.upvotes.Tally(ctx, ids, sessionID)
	})
	return UpvoteCounts{UpvoteTally: tally, Degraded: degraded}
}
