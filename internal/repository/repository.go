package repository

import (
	"context"
	"time"

	"github.com/trustdot/reputation/internal/domain"
)

// ReviewFilter selects one window of a vendor's reviews, newest first.
type ReviewFilter struct {
	VendorID string
	// Since is an inclusive lower bound on created_at; nil means no bound.
	Since  *time.Time
	Offset int
	Limit  int
}

// ReviewRepository stores append-only reviews.
type ReviewRepository interface {
	// Insert stores a new review. An unknown vendor yields apperrors.ErrNotFound.
	Insert(ctx context.Context, review *domain.Review) error

	// Get returns one review or apperrors.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Review, error)

	// List returns reviews matching the filter ordered by created_at descending.
	List(ctx context.Context, filter ReviewFilter) ([]domain.Review, error)

	// Stats returns count and mean rating over all of the vendor's reviews.
	Stats(ctx context.Context, vendorID string) (domain.ReviewStats, error)
}

// UpvoteRepository stores at most one upvote per (review, session).
type UpvoteRepository interface {
	// Insert records a vote. A repeat pair yields apperrors.ErrAlreadyExists.
	Insert(ctx context.Context, reviewID, sessionID string) error

	// Tally counts votes for every id in one round-trip and flags the ids
	// sessionID has voted on.
	Tally(ctx context.Context, reviewIDs []string, sessionID string) (domain.UpvoteTally, error)
}

// VendorRepository reads vendor profiles and replaces their aggregate.
type VendorRepository interface {
	// Get returns the vendor or apperrors.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Vendor, error)

	// UpdateAggregate replaces all derived fields in a single statement.
	UpdateAggregate(ctx context.Context, id string, agg domain.Aggregate) error
}
