package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/trustdot/reputation/internal/domain"
	pkgkafka "github.com/trustdot/reputation/pkg/kafka"
	"github.com/trustdot/reputation/pkg/logger"
)

// Kafka topics for reputation domain events.
var (
	TopicReviewCreated      = pkgkafka.Topic("review", "created")
	TopicReviewUpvoted      = pkgkafka.Topic("review", "upvoted")
	TopicVendorScoreUpdated = pkgkafka.Topic("vendor", "score_updated")
)

// Aggregate type constants.
const (
	AggregateTypeReview = "review"
	AggregateTypeVendor = "vendor"
)

// SourceReputationService identifies events originating from this service.
const SourceReputationService = "reputation-service"

// MetadataVendorID carries the owning vendor on every event so consumers
// can partition or filter without decoding the payload.
const MetadataVendorID = "vendor_id"

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ReviewID  string    `json:"review_id"`
	VendorID  string    `json:"vendor_id"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// ScoreUpdatedData is the payload for a vendor.score_updated event.
type ScoreUpdatedData struct {
	VendorID     string  `json:"vendor_id"`
	TotalJobs    int     `json:"total_jobs"`
	VerifiedJobs int     `json:"verified_jobs"`
	AvgRating    float64 `json:"avg_rating"`
	TrustScore   int     `json:"trust_score"`
}

// ReviewUpvotedData is the payload for a review.upvoted event.
type ReviewUpvotedData struct {
	ReviewID string `json:"review_id"`
	VendorID string `json:"vendor_id"`
}

// Publisher sends an event envelope to a topic. *pkgkafka.Producer
// satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes reputation domain events.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType, vendorID string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceReputationService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}
	event.WithMetadata(MetadataVendorID, vendorID)

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
		slog.String("event_id", event.EventID),
	)
	return nil
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	return p.publish(ctx, TopicReviewCreated, review.ID, AggregateTypeReview, review.VendorID, ReviewCreatedData{
		ReviewID:  review.ID,
		VendorID:  review.VendorID,
		Rating:    review.Rating,
		CreatedAt: review.CreatedAt,
	})
}

// PublishScoreUpdated publishes a vendor.score_updated event.
func (p *Producer) PublishScoreUpdated(ctx context.Context, vendorID string, agg domain.Aggregate) error {
	return p.publish(ctx, TopicVendorScoreUpdated, vendorID, AggregateTypeVendor, vendorID, ScoreUpdatedData{
		VendorID:     vendorID,
		TotalJobs:    agg.TotalJobs,
		VerifiedJobs: agg.VerifiedJobs,
		AvgRating:    agg.AvgRating,
		TrustScore:   agg.TrustScore,
	})
}

// PublishReviewUpvoted publishes a review.upvoted event.
func (p *Producer) PublishReviewUpvoted(ctx context.Context, reviewID, vendorID string) error {
	return p.publish(ctx, TopicReviewUpvoted, reviewID, AggregateTypeReview, vendorID, ReviewUpvotedData{
		ReviewID: reviewID,
		VendorID: vendorID,
	})
}
