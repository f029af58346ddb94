package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/trustdot/reputation/internal/domain"
	"github.com/trustdot/reputation/internal/repository"
	apperrors "github.com/trustdot/reputation/pkg/errors"
	"github.com/trustdot/reputation/pkg/pagination"
)

// Score status reported after a review submission.
const (
	ScoreStatusUpdated = "updated"
	ScoreStatusPending = "pending"
)

// SubmitReviewInput holds the parameters for submitting a review.
type SubmitReviewInput struct {
	VendorID  string
	Rating    int
	Comment   string
	Anonymous bool
	ImageRef  string
}

// SubmitReviewResult is a saved review and the state of the vendor's score.
// Aggregate is nil when ScoreStatus is pending.
type SubmitReviewResult struct {
	Review      *domain.Review    `json:"review"`
	ScoreStatus string            `json:"score_status"`
	Aggregate   *domain.Aggregate `json:"aggregate,omitempty"`
}

// ListReviewsInput selects one page of a vendor's reviews.
type ListReviewsInput struct {
	VendorID  string
	SessionID string
	Window    pagination.Window
	Recency   domain.RecencyFilter
}

// ReviewWithUpvotes is a review plus its upvote tally for the asking session.
type ReviewWithUpvotes struct {
	domain.Review
	Upvotes int  `json:"upvotes"`
	Upvoted bool `json:"upvoted"`
}

// ReviewListResult is one page of reviews with upvote tallies.
type ReviewListResult struct {
	pagination.Page[ReviewWithUpvotes]
	UpvotesDegraded bool `json:"upvotes_degraded"`
}

// ReviewAnalytics is keyword sentiment over one page of reviews. NoSignals
// is set when neither lexicon matched anything on the page.
type ReviewAnalytics struct {
	domain.Sentiment
	NoSignals   bool `json:"no_strong_signals"`
	ReviewCount int  `json:"review_count"`
	HasMore     bool `json:"has_more"`
}

// ReviewService implements review submission and read-time projections.
type ReviewService struct {
	reviews    repository.ReviewRepository
	vendors    repository.VendorRepository
	aggregator *Aggregator
	upvotes    *UpvoteService
	events     EventPublisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	vendors repository.VendorRepository,
	aggregator *Aggregator,
	upvotes *UpvoteService,
	events EventPublisher,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:    reviews,
		vendors:    vendors,
		aggregator: aggregator,
		upvotes:    upvotes,
		events:     events,
		logger:     logger,
		now:        time.Now,
	}
}

// SubmitReview saves a review and recomputes the vendor's aggregate. When
// the recompute fails the review stays saved and the score is reported as
// pending; it is corrected by the next successful recompute.
func (s *ReviewService) SubmitReview(ctx context.Context, input *SubmitReviewInput) (*SubmitReviewResult, error) {
	params := domain.NewReviewParams{
		VendorID:  strings.TrimSpace(input.VendorID),
		Rating:    input.Rating,
		Comment:   input.Comment,
		Anonymous: input.Anonymous,
		ImageRef:  input.ImageRef,
	}
	if err := params.Validate(); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	if _, err := s.vendors.Get(ctx, params.VendorID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("vendor", params.VendorID)
		}
		return nil, apperrors.Transient("read vendor", err)
	}

	review := domain.NewReview(uuid.New().String(), params, s.now())
	if err := s.reviews.Insert(ctx, review); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("vendor", params.VendorID)
		}
		return nil, apperrors.Transient("save review", err)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("vendor_id", review.VendorID),
		slog.Int("rating", review.Rating),
	)
	if s.events != nil {
		if err := s.events.PublishReviewCreated(ctx, review); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish review.created event",
				slog.String("review_id", review.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	result := &SubmitReviewResult{Review: review, ScoreStatus: ScoreStatusPending}

	agg, err := s.aggregator.RecomputeAggregate(ctx, review.VendorID)
	if err != nil {
		reviewsSubmittedTotal.WithLabelValues(ScoreStatusPending).Inc()
		s.logger.WarnContext(ctx, "review saved, score update pending",
			slog.String("review_id", review.ID),
			slog.String("vendor_id", review.VendorID),
			slog.String("error", err.Error()),
		)
		return result, nil
	}

	result.ScoreStatus = ScoreStatusUpdated
	result.Aggregate = &agg
	reviewsSubmittedTotal.WithLabelValues(ScoreStatusUpdated).Inc()

	if s.events != nil {
		if err := s.events.PublishScoreUpdated(ctx, review.VendorID, agg); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish vendor.score_updated event",
				slog.String("vendor_id", review.VendorID),
				slog.String("error", err.Error()),
			)
		}
	}

	return result, nil
}

// ListReviewsWithUpvotes returns one page of reviews, newest first, with the
// session's upvote tallies. A failed tally read degrades to zero counts.
func (s *ReviewService) ListReviewsWithUpvotes(ctx context.Context, input *ListReviewsInput) (*ReviewListResult, error) {
	page, err := s.page(ctx, input.VendorID, input.Window, input.Recency)
	if err != nil {
		return nil, err
	}

	ids := lo.Map(page.Items, func(r domain.Review, _ int) string { return r.ID })
	counts := s.upvotes.CountUpvotes(ctx, ids, input.SessionID)

	items := lo.Map(page.Items, func(r domain.Review, _ int) ReviewWithUpvotes {
		return ReviewWithUpvotes{
			Review:  r,
			Upvotes: counts.Counts[r.ID],
			Upvoted: counts.Voted[r.ID],
		}
	})

	return &ReviewListResult{
		Page: pagination.Page[ReviewWithUpvotes]{
			Items:      items,
			Offset:     page.Offset,
			Limit:      page.Limit,
			HasMore:    page.HasMore,
			NextOffset: page.NextOffset,
		},
		UpvotesDegraded: counts.Degraded,
	}, nil
}

// GetReviewAnalytics runs keyword sentiment over one page of reviews. An
// empty page yields empty keyword lists.
func (s *ReviewService) GetReviewAnalytics(ctx context.Context, vendorID string, window pagination.Window, recency domain.RecencyFilter) (*ReviewAnalytics, error) {
	page, err := s.page(ctx, vendorID, window, recency)
	if err != nil {
		return nil, err
	}

	comments := lo.FilterMap(page.Items, func(r domain.Review, _ int) (string, bool) {
		return r.CommentText(), r.Comment != nil
	})

	sentiment := domain.AnalyzeSentiment(comments)
	return &ReviewAnalytics{
		Sentiment:   sentiment,
		NoSignals:   sentiment.Empty(),
		ReviewCount: len(page.Items),
		HasMore:     page.HasMore,
	}, nil
}

// page fetches one window of reviews. HasMore is set when the window came
// back full.
func (s *ReviewService) page(ctx context.Context, vendorID string, window pagination.Window, recency domain.RecencyFilter) (pagination.Page[domain.Review], error) {
	vendorID = strings.TrimSpace(vendorID)
	if vendorID == "" {
		return pagination.Page[domain.Review]{}, apperrors.InvalidInput("vendor_id is required")
	}
	if window.Limit < 1 {
		return pagination.Page[domain.Review]{}, apperrors.InvalidInput("limit must be at least 1")
	}
	if window.Offset < 0 {
		return pagination.Page[domain.Review]{}, apperrors.InvalidInput("offset must not be negative")
	}
	if recency == "" {
		recency = domain.RecencyAll
	}

	reviews, err := s.reviews.List(ctx, repository.ReviewFilter{
		VendorID: vendorID,
		Since:    recency.Since(s.now()),
		Offset:   window.Offset,
		Limit:    window.Limit,
	})
	if err != nil {
		return pagination.Page[domain.Review]{}, apperrors.Transient("list reviews", err)
	}
	return pagination.NewPage(reviews, window), nil
}
