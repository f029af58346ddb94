package service

import (
	"context"

	"github.com/trustdot/reputation/internal/domain"
)

// EventPublisher emits reputation domain events. A nil publisher disables
// events. Publish failures are logged and never fail the operation.
type EventPublisher interface {
	PublishReviewCreated(ctx context.Context, review *domain.Review) error
	PublishScoreUpdated(ctx context.Context, vendorID string, agg domain.Aggregate) error
	PublishReviewUpvoted(ctx context.Context, reviewID, vendorID string) error
}
